package aggregate

import "github.com/SankarSivan/Healthcare/pkg/admissions"

// TopBillingLimit is the number of diagnosis and test pairs on the dashboard.
const TopBillingLimit = 10

type Dashboard struct {
	KPIs              KPIs            `json:"kpis"`
	MonthlyTrend      []MonthlyPoint  `json:"monthly_trend"`
	DiagnosisTrend    []CategoryPoint `json:"diagnosis_trend"`
	TestTrend         []CategoryPoint `json:"test_trend"`
	Diagnoses         []Count         `json:"diagnoses"`
	Tests             []Count         `json:"tests"`
	Wards             []Count         `json:"wards"`
	Doctors           []Count         `json:"doctors"`
	Feedback          []Count         `json:"feedback"`
	DoctorPerformance []DoctorStats   `json:"doctor_performance"`
	DoctorFeedback    []DoctorStats   `json:"doctor_feedback"`
	DoctorTests       []PairCount     `json:"doctor_tests"`
	TopBilling        []BillingTotal  `json:"top_billing"`
	StayHistogram     []Bin           `json:"stay_histogram"`
	BillingHistogram  []Bin           `json:"billing_histogram"`
	AdmissionFlow     []FlowPoint     `json:"admission_flow"`
}

func Build(records []admissions.Record) Dashboard {
	return Dashboard{
		KPIs:              ComputeKPIs(records),
		MonthlyTrend:      MonthlyTrend(records),
		DiagnosisTrend:    CategoryTrend(records, admissions.ColumnDiagnosis),
		TestTrend:         CategoryTrend(records, admissions.ColumnTest),
		Diagnoses:         Breakdown(records, admissions.ColumnDiagnosis),
		Tests:             Breakdown(records, admissions.ColumnTest),
		Wards:             Breakdown(records, admissions.ColumnWard),
		Doctors:           Breakdown(records, admissions.ColumnDoctor),
		Feedback:          FeedbackDistribution(records),
		DoctorPerformance: DoctorPerformance(records),
		DoctorFeedback:    DoctorFeedbackRanking(records),
		DoctorTests:       DoctorTestPatterns(records),
		TopBilling:        TopBilling(records, TopBillingLimit),
		StayHistogram:     LengthOfStayHistogram(records),
		BillingHistogram:  BillingHistogram(records),
		AdmissionFlow:     AdmissionFlow(records),
	}
}
