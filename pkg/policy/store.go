package policy

import (
	"context"
	"fmt"

	"github.com/originhq/origin/internal/db"
)

// ProfileRecord is the persisted metadata row for a PolicyProfile
// (spec.md §3): rule thresholds themselves are data, not code (spec.md
// §9 Open Question 1), but ORIGIN registers rule sets in-process by
// (id, version) rather than interpreting them from the database — see
// Registry below.
type ProfileRecord struct {
	ID                  string
	Version             int
	RiskModelVersion    string
	AnomalyModelVersion string
}

// Store persists PolicyProfile metadata rows.
type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

func (s *Store) Get(ctx context.Context, id string, version int) (*ProfileRecord, error) {
	r := &ProfileRecord{}
	query := `SELECT id, version, risk_model_version, anomaly_model_version
		FROM policy_profiles WHERE id = $1 AND version = $2`
	err := s.db.QueryRow(ctx, query, id, version).Scan(&r.ID, &r.Version, &r.RiskModelVersion, &r.AnomalyModelVersion)
	if err != nil {
		return nil, fmt.Errorf("policy: getting profile record: %w", err)
	}
	return r, nil
}

func (s *Store) Create(ctx context.Context, r *ProfileRecord) error {
	query := `INSERT INTO policy_profiles (id, version, risk_model_version, anomaly_model_version)
		VALUES ($1, $2, $3, $4)`
	_, err := s.db.Exec(ctx, query, r.ID, r.Version, r.RiskModelVersion, r.AnomalyModelVersion)
	if err != nil {
		return fmt.Errorf("policy: creating profile record: %w", err)
	}
	return nil
}

// Registry resolves a (id, version) pair to its executable Profile.
// Rule sets are registered in-process at startup; the database tracks
// only the metadata needed for certificate/ledger bookkeeping.
type Registry struct {
	profiles map[string]*Profile
}

func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]*Profile)}
}

func (r *Registry) Register(profile *Profile) {
	r.profiles[registryKey(profile.ID, profile.Version)] = profile
}

func (r *Registry) Resolve(id string, version int) (*Profile, bool) {
	p, ok := r.profiles[registryKey(id, version)]
	return p, ok
}

func registryKey(id string, version int) string {
	return fmt.Sprintf("%s@%d", id, version)
}
