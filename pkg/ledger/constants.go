package ledger

const (
	operationAdd         = "add"
	operationStatus      = "update_status"
	operationHash        = "update_transaction_hash"
	operationDelete      = "delete"
	operationFund        = "fund"
	operationRelease     = "release"
	operationRefund      = "refund"
	operationDispute     = "dispute"
	operationRevision    = "request_revision"
	operationStatusOK    = "ok"
	operationStatusError = "error"
)
