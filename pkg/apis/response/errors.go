package response

var errors = map[ErrCode]string{
	ErrCodeMalformedJSON:       "The JSON you provided was not well-formed or did not validate against our published format.",
	ErrCodeRequestBody:         "Request body error",
	ErrCodeResourceExists:      "The %s already exists.",
	ErrCodeResourceNotFound:    "The %s does not exist.",
	ErrCodeLegalActionNotFound: "Legal action not found.",
	ErrCodeInvalidQuery:        "Invalid query parameter %s: %s",
	ErrCodeInvalidRequest:      "Invalid request: %s",
	ErrCodeDeviceNotConnected:  "The device at %s is not connected.",
	ErrCodeDeviceTimeout:       "The device at %s did not answer in time.",
	ErrCodeDeviceException:     "The device refused the request: %s",
	ErrCodeDeviceProtocol:      "The device answered with an invalid response: %s",
	ErrCodeInternal:            "Internal error: %s",
}

// !!! IMPORTANT PLEASE READ FIRST !!!
// You SHOULD add new code at the end of enum firstly.

var ErrMalformedJSON = &responseError{
	Code:    ErrCodeMalformedJSON,
	Message: errors[ErrCodeMalformedJSON],
}

var ErrRequestBody = &responseError{
	Code:    ErrCodeRequestBody,
	Message: errors[ErrCodeRequestBody],
}

var ErrLegalActionNotFound = &responseError{
	Code:    ErrCodeLegalActionNotFound,
	Message: errors[ErrCodeLegalActionNotFound],
}

func ErrInvalidQuery(name string, err error) *responseError {
	return generateErrorWrapper(ErrCodeInvalidQuery, err, name, err.Error())
}

func ErrInvalidRequest(err error) *responseError {
	return generateErrorWrapper(ErrCodeInvalidRequest, err, err.Error())
}

func ErrDeviceNotConnected(address string, err error) *responseError {
	return generateErrorWrapper(ErrCodeDeviceNotConnected, err, address)
}

func ErrDeviceTimeout(address string, err error) *responseError {
	return generateErrorWrapper(ErrCodeDeviceTimeout, err, address)
}

func ErrDeviceException(err error) *responseError {
	return generateErrorWrapper(ErrCodeDeviceException, err, err.Error())
}

func ErrDeviceProtocol(err error) *responseError {
	return generateErrorWrapper(ErrCodeDeviceProtocol, err, err.Error())
}

func ErrInternal(err error) *responseError {
	return generateErrorWrapper(ErrCodeInternal, err, err.Error())
}
