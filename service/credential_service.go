package service

import (
	"encoding/json"

	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/integration"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
	"github.com/inboxops/relay/util"
)

// CredentialService seals credential blobs before they reach storage. Secret
// material never leaves this package unencrypted except on its way into an
// adapter call.
type CredentialService struct {
	credentialDao persistence.CredentialDao
	registry      *integration.Registry
	cipher        *util.Cipher
}

func NewCredentialService(credentialDao persistence.CredentialDao, registry *integration.Registry, cipher *util.Cipher) *CredentialService {
	return &CredentialService{
		credentialDao: credentialDao,
		registry:      registry,
		cipher:        cipher,
	}
}

func (s *CredentialService) Save(orgId string, integrationName string, secrets map[string]any) error {
	if _, err := s.registry.Get(integrationName); err != nil {
		return api_v1.ValidationError{Message: "unknown integration " + integrationName}
	}
	if len(secrets) == 0 {
		return api_v1.ValidationError{Message: "credential secrets can not be empty"}
	}
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return err
	}
	sealed, err := s.cipher.Seal(plaintext)
	if err != nil {
		return err
	}
	return s.credentialDao.Save(orgId, integrationName, sealed)
}

func (s *CredentialService) ListStatus(orgId string) ([]model.CredentialStatus, error) {
	return s.credentialDao.ListStatus(orgId)
}
