package logging

const (
	FieldComponent = "component"

	FieldDuration = "duration"

	FieldServerName = "serverName"
	FieldRpcMethod  = "rpcMethod"
	FieldRpcParams  = "rpcParams"
)
