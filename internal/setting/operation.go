package setting

// OperationType is an operation that can be performed on a setting.
//
//go:generate go tool enumer -type=OperationType -trimprefix=OperationType -json
type OperationType int

const (
	OperationTypeView OperationType = iota
	OperationTypeCreate
	OperationTypeUpdate
	OperationTypeDelete
)
