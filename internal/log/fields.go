package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRunID       = "run_id"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldTxID        = "tx_id"
	FieldKind        = "kind"
	FieldMethod      = "method"
	FieldAmountCents = "amount_cents"
	FieldMonthIndex  = "month_index"
	FieldStartYear   = "start_year"
	FieldYears       = "years"
	FieldDBPath      = "db_path"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentVerify  = "verify"
)

// Operations defines standard operation names
const (
	OpAdd      = "add"
	OpDelete   = "delete"
	OpGet      = "get"
	OpList     = "list"
	OpBalance  = "balance"
	OpChanges  = "changes"
	OpRegister = "register"
	OpVerify   = "verify"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
