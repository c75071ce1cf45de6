package model

type Credential struct {
	OrgId       string
	Integration string
	Secrets     map[string]any
	UpdatedAt   int64
}

// CredentialStatus is what the API exposes: never the secret material itself.
type CredentialStatus struct {
	Integration string `json:"integration"`
	Configured  bool   `json:"configured"`
	UpdatedAt   int64  `json:"updatedAt,omitempty"`
}
