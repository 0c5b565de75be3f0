package models

// CSV column names, in canonical (upper) case.
const (
	ColumnActivityID      = "ACTIVITY_ID"
	ColumnDepotActivityID = "DEPOT_ACTIVITY_ID"
	ColumnUmsatzKey       = "UMSATZ_KEY"
	ColumnAmount          = "AMOUNT"
	ColumnEntryDate       = "ENTRY_DATE"
	ColumnSenderBLZ       = "SENDER_BLZ"
	ColumnSenderKonto     = "SENDER_KONTO"
	ColumnSenderName      = "SENDER_NAME"
	ColumnReceiverBLZ     = "RECEIVER_BLZ"
	ColumnReceiverKonto   = "RECEIVER_KONTO"
	ColumnReceiverName    = "RECEIVER_NAME"

	// DescriptionColumns is the number of DESCn columns that make up a subject.
	DescriptionColumns = 14
)

// UMSATZ_KEY values understood by the importer.
const (
	UmsatzKeyTransfer    = "10"
	UmsatzKeyDirectDebit = "16"
)

// InternalBankCode is the BLZ used by the source system for accounts held by
// the operator itself.
const InternalBankCode = "00000000"

// File permissions
const (
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
	PermissionLedgerFile = 0600
)
