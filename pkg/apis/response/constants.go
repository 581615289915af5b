package response

type ErrCode int

const (
	_                          ErrCode = 10000 + iota
	ErrCodeMalformedJSON               // 10001
	ErrCodeRequestBody                 // 10002
	ErrCodeResourceExists              // 10003
	ErrCodeResourceNotFound            // 10004
	ErrCodeLegalActionNotFound         // 10005
	ErrCodeInvalidQuery                // 10006
	ErrCodeInvalidRequest              // 10007
	ErrCodeDeviceNotConnected          // 10008
	ErrCodeDeviceTimeout               // 10009
	ErrCodeDeviceException             // 10010
	ErrCodeDeviceProtocol              // 10011
	ErrCodeInternal                    // 10012
)

// !!! IMPORTANT PLEASE READ FIRST !!!
// You SHOULD add new code at the end, and append comment of number
// Meanwhile, the corresponding error message SHOULD be appended in response.errors
// The order MUST be consistent between them
