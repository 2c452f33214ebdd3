package outbound

import "context"

type StoreMediaParams struct {
	RunID   string
	UserID  string
	Kind    string
	Content []byte
}

type MediaStorePort interface {
	Save(ctx context.Context, params StoreMediaParams) (string, error)
}
