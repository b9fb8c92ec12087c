package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/SolMeet-Labs/access_layer/internal/app/domain/subscription"
	"github.com/SolMeet-Labs/access_layer/internal/app/storage"
	svcerrors "github.com/SolMeet-Labs/access_layer/internal/errors"
)

// The document store keeps one document per principal in the users
// collection, matching the original record layout.
const recordCollection = "users"

// Records implements storage.RecordStore against the document store.
type Records struct {
	client *Client
}

var _ storage.RecordStore = (*Records)(nil)

// NewRecords creates a record store backed by the given client.
func NewRecords(client *Client) *Records {
	return &Records{client: client}
}

func (r *Records) GetSubscription(ctx context.Context, principalID string) (subscription.Record, bool, error) {
	if principalID == "" {
		return subscription.Record{}, false, fmt.Errorf("principal id is required")
	}

	query := "id=eq." + url.QueryEscape(principalID) + "&select=id,subscribed"
	data, err := r.client.request(ctx, "GET", recordCollection, nil, query)
	if err != nil {
		return subscription.Record{}, false, classify(err)
	}

	doc := gjson.GetBytes(data, "0")
	if !doc.Exists() {
		return subscription.Record{}, false, nil
	}

	return subscription.Record{
		PrincipalID: doc.Get("id").String(),
		Subscribed:  doc.Get("subscribed").Bool(),
	}, true, nil
}

func (r *Records) PutSubscription(ctx context.Context, record subscription.Record) error {
	if record.PrincipalID == "" {
		return fmt.Errorf("principal id is required")
	}

	body := map[string]interface{}{
		"id":         record.PrincipalID,
		"subscribed": record.Subscribed,
	}
	if _, err := r.client.request(ctx, "POST", recordCollection, body, ""); err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Denied() {
		return svcerrors.StoreDenied(err)
	}
	return svcerrors.StoreUnavailable(err)
}
