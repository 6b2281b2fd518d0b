package cli

var (
	GetIndexConfig = getIndexConfig
	PrintSummary   = printSummary
)
