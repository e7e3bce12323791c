package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Storage keys shared by both tiers.
const (
	SessionKey    = "reactbase.auth"
	RememberMeKey = "reactbase.auth.remember"
	DeviceKey     = "reactbase.device"
)

// sessionRecordSchema is the minimum shape a stored record must have to be trusted.
const sessionRecordSchema = `{
  "type": "object",
  "required": ["status", "accessToken", "user"],
  "properties": {
    "status": {"const": "authenticated"},
    "accessToken": {"type": "string", "minLength": 1},
    "refreshToken": {"type": ["string", "null"]},
    "user": {
      "type": "object",
      "required": ["id", "username", "email"],
      "properties": {
        "id": {"type": ["string", "number"]},
        "username": {"type": "string"},
        "email": {"type": "string"}
      }
    }
  }
}`

// CredentialStore persists the session record in exactly one of two tiers.
// The durable tier survives restarts and also holds the remember-me preference;
// the ephemeral tier is cleared when the client session ends.
type CredentialStore struct {
	durable   KV
	ephemeral KV
	schema    *jsonschema.Schema
	logger    *slog.Logger
}

// CredentialStoreOption configures a CredentialStore.
type CredentialStoreOption func(*CredentialStore)

// WithStoreLogger sets the logger used to report discarded records and storage failures.
func WithStoreLogger(logger *slog.Logger) CredentialStoreOption {
	return func(s *CredentialStore) {
		s.logger = logger
	}
}

// NewCredentialStore creates a store over the durable and ephemeral tiers.
func NewCredentialStore(durable, ephemeral KV, opts ...CredentialStoreOption) (*CredentialStore, error) {
	if durable == nil || ephemeral == nil {
		return nil, fmt.Errorf("credential store requires both storage tiers")
	}

	schema, err := compileRecordSchema()
	if err != nil {
		return nil, err
	}

	s := &CredentialStore{
		durable:   durable,
		ephemeral: ephemeral,
		schema:    schema,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func compileRecordSchema() (*jsonschema.Schema, error) {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(sessionRecordSchema))
	if err != nil {
		return nil, fmt.Errorf("parse session record schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)

	const schemaURL = "session-record.json"
	if err := compiler.AddResource(schemaURL, parsed); err != nil {
		return nil, fmt.Errorf("add session record schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile session record schema: %w", err)
	}
	return schema, nil
}

// RememberMe returns the durable remember-me preference. Missing or unreadable
// values read as false.
func (s *CredentialStore) RememberMe(ctx context.Context) bool {
	value, ok, err := s.durable.Get(ctx, RememberMeKey)
	if err != nil {
		s.logger.Warn("failed to read remember-me preference", "error", err)
		return false
	}
	return ok && value == "true"
}

func (s *CredentialStore) tier(rememberMe bool) (selected, other KV) {
	if rememberMe {
		return s.durable, s.ephemeral
	}
	return s.ephemeral, s.durable
}

// Load returns the stored session record, or the anonymous record when none is
// stored or the stored one cannot be trusted. Untrusted entries are deleted.
func (s *CredentialStore) Load(ctx context.Context) SessionRecord {
	kv, _ := s.tier(s.RememberMe(ctx))

	raw, ok, err := kv.Get(ctx, SessionKey)
	if err != nil {
		s.logger.Warn("failed to read session record", "error", err)
		return AnonymousRecord()
	}
	if !ok || raw == "" {
		return AnonymousRecord()
	}

	record, err := s.decode(raw)
	if err != nil {
		s.logger.Warn("discarding stored session record", "error", err)
		if delErr := kv.Delete(ctx, SessionKey); delErr != nil {
			s.logger.Warn("failed to delete stored session record", "error", delErr)
		}
		return AnonymousRecord()
	}
	return record
}

func (s *CredentialStore) decode(raw string) (SessionRecord, error) {
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return SessionRecord{}, fmt.Errorf("parse session record: %w", err)
	}
	if err := s.schema.Validate(inst); err != nil {
		return SessionRecord{}, fmt.Errorf("invalid session record: %w", err)
	}

	var record SessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return SessionRecord{}, fmt.Errorf("decode session record: %w", err)
	}
	record.Status = StatusAuthenticated
	return record, nil
}

// Save persists record in the tier selected by rememberMe and removes any
// copy from the other tier. An anonymous record clears both tiers and the
// preference.
func (s *CredentialStore) Save(ctx context.Context, record SessionRecord, rememberMe bool) error {
	if record.Status != StatusAuthenticated {
		return s.clear(ctx)
	}
	if !record.IsAuthenticated() {
		return fmt.Errorf("refusing to persist incomplete authenticated record")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := s.durable.Set(ctx, RememberMeKey, fmt.Sprintf("%t", rememberMe)); err != nil {
		return fmt.Errorf("failed to save remember-me preference: %w", err)
	}

	selected, other := s.tier(rememberMe)
	if err := selected.Set(ctx, SessionKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	if err := other.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("failed to clear stale session record: %w", err)
	}
	return nil
}

func (s *CredentialStore) clear(ctx context.Context) error {
	for _, kv := range []KV{s.durable, s.ephemeral} {
		if err := kv.Delete(ctx, SessionKey); err != nil {
			return fmt.Errorf("failed to delete session record: %w", err)
		}
	}
	if err := s.durable.Delete(ctx, RememberMeKey); err != nil {
		return fmt.Errorf("failed to delete remember-me preference: %w", err)
	}
	return nil
}

// DeviceID returns the durable device identifier, creating it on first use.
func (s *CredentialStore) DeviceID(ctx context.Context) (string, error) {
	id, ok, err := s.durable.Get(ctx, DeviceKey)
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	if ok {
		if _, err := uuid.Parse(id); err == nil {
			return id, nil
		}
	}

	id = uuid.NewString()
	if err := s.durable.Set(ctx, DeviceKey, id); err != nil {
		return "", fmt.Errorf("failed to save device id: %w", err)
	}
	return id, nil
}
