package types

// EntityType is the breakdown level of an aggregate ads report
type EntityType string

const (
	EntityTypeAdAccount EntityType = "AD_ACCOUNT"
	EntityTypeCampaign  EntityType = "CAMPAIGN"
	EntityTypeAdSet     EntityType = "AD_SET"
	EntityTypeAd        EntityType = "AD"
)

// Label returns a title cased name, e.g. "Ad Set"
func (e EntityType) Label() string {
	switch e {
	case EntityTypeAdAccount:
		return "Ad Account"
	case EntityTypeCampaign:
		return "Campaign"
	case EntityTypeAdSet:
		return "Ad Set"
	case EntityTypeAd:
		return "Ad"
	default:
		return string(e)
	}
}

// ReportField is a metric column of an aggregate ads report
type ReportField string

const (
	FieldImpressions         ReportField = "IMPRESSIONS"
	FieldStreamedImpressions ReportField = "STREAMED_IMPRESSIONS"
	FieldClicks              ReportField = "CLICKS"
	FieldSpend               ReportField = "SPEND"
	FieldCTR                 ReportField = "CTR"
	FieldECPCL               ReportField = "E_CPCL"
	FieldCompletes           ReportField = "COMPLETES"
	FieldCompletionRate      ReportField = "COMPLETION_RATE"
)

// FinanceSnapshotFields is the fixed field set requested for a finance snapshot
func FinanceSnapshotFields() []ReportField {
	return []ReportField{
		FieldImpressions,
		FieldStreamedImpressions,
		FieldClicks,
		FieldSpend,
		FieldCTR,
		FieldECPCL,
	}
}

// Granularity is the time bucket of report rows
type Granularity string

const (
	GranularityDay  Granularity = "DAY"
	GranularityHour Granularity = "HOUR"
)
