package platform

// Repository is a source repository registered with the tenant. Repositories
// are stored as inventory managed objects.
type Repository struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Enabled     bool   `json:"enabled"`
	AccessToken string `json:"accessToken,omitempty"`
}

// Redacted returns a copy of r safe to hand out to clients.
func (r Repository) Redacted() Repository {
	if r.AccessToken != "" {
		r.AccessToken = redactedToken
	}
	return r
}

// Binary describes an uploaded inventory binary.
type Binary struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	PasExtension string `json:"pas_extension"`
}

const redactedToken = "********"

type managedObject struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Enabled     *bool  `json:"enabled"`
	AccessToken string `json:"accessToken"`
}

func (mo managedObject) repository() Repository {
	enabled := true
	if mo.Enabled != nil {
		enabled = *mo.Enabled
	}
	return Repository{
		ID:          mo.ID,
		Name:        mo.Name,
		URL:         mo.URL,
		Enabled:     enabled,
		AccessToken: mo.AccessToken,
	}
}

type managedObjectCollection struct {
	ManagedObjects []managedObject `json:"managedObjects"`
}
