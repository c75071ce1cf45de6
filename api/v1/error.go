package api_v1

import "fmt"

type NotFoundError struct {
	Resource string
	Id       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Id)
}

type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

type CredentialMissingError struct {
	Integration string
}

func (e CredentialMissingError) Error() string {
	return fmt.Sprintf("integration %s is not connected", e.Integration)
}

type UnknownActionError struct {
	Integration string
	Action      string
}

func (e UnknownActionError) Error() string {
	return fmt.Sprintf("integration %s does not support action %s", e.Integration, e.Action)
}

// UpstreamError carries the error message returned by a third-party API. It is
// terminal for the run that hit it.
type UpstreamError struct {
	Integration string
	Message     string
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Integration, e.Message)
}
