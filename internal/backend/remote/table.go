// Package remote implements the synchronized snapshot store on Azure Table
// Storage, with an optional Redis read cache in front of it.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/sandeepkv93/dailytodo/internal/backend"
	"github.com/sandeepkv93/dailytodo/internal/model"
)

const (
	DefaultTable   = "dailyTodos"
	DefaultTimeout = 5 * time.Second

	edmDateTime = "Edm.DateTime"
)

// TableClient is the subset of *aztables.Client the backend uses.
type TableClient interface {
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
}

type snapshotEntity struct {
	PartitionKey    string    `json:"PartitionKey"`
	RowKey          string    `json:"RowKey"`
	Tasks           string    `json:"Tasks"`
	LastUpdated     time.Time `json:"LastUpdated"`
	LastUpdatedType string    `json:"LastUpdated@odata.type"`
	UserID          string    `json:"UserId"`
	SavedDate       string    `json:"SavedDate"`
}

// DocumentKey is the per-user, per-day document identifier.
func DocumentKey(userID string, date model.CalendarDate) string {
	return userID + "_" + date.String()
}

type TableBackend struct {
	client  TableClient
	timeout time.Duration
	now     func() time.Time
}

// NewTableBackend wraps client. A nil client yields a backend that reports
// ErrBackendUnavailable on every call.
func NewTableBackend(client TableClient, timeout time.Duration) *TableBackend {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TableBackend{client: client, timeout: timeout, now: time.Now}
}

// NewTableClient builds a table client from a storage connection string.
func NewTableClient(connStr, table string) (*aztables.Client, error) {
	if table == "" {
		table = DefaultTable
	}
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				RetryDelay:    500 * time.Millisecond,
				MaxRetryDelay: 2 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return svc.NewClient(table), nil
}

// EnsureTable creates the table if it does not exist yet.
func EnsureTable(ctx context.Context, client *aztables.Client) error {
	if _, err := client.CreateTable(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

func (b *TableBackend) Name() string { return "remote" }

func (b *TableBackend) LoadSnapshot(ctx context.Context, userID string, date model.CalendarDate) (model.Snapshot, error) {
	if b == nil || b.client == nil {
		return model.Snapshot{}, backend.ErrBackendUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.GetEntity(ctx, userID, DocumentKey(userID, date), nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return model.Snapshot{}, backend.ErrNotFound
		}
		return model.Snapshot{}, backend.Transport("get entity", err)
	}
	return decodeEntity(resp.Value, userID, date)
}

// SaveSnapshot replaces the document for the snapshot's user and date.
func (b *TableBackend) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	if b == nil || b.client == nil {
		return backend.ErrBackendUnavailable
	}
	payload, err := encodeEntity(snap, b.now())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	_, err = b.client.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	if err != nil {
		return backend.Transport("upsert entity", err)
	}
	return nil
}

func encodeEntity(snap model.Snapshot, now time.Time) ([]byte, error) {
	tasks := snap.Tasks
	if tasks == nil {
		tasks = model.TaskCollection{}
	}
	rawTasks, err := json.Marshal(tasks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snapshotEntity{
		PartitionKey:    snap.UserID,
		RowKey:          DocumentKey(snap.UserID, snap.LastSavedDate),
		Tasks:           string(rawTasks),
		LastUpdated:     now.UTC(),
		LastUpdatedType: edmDateTime,
		UserID:          snap.UserID,
		SavedDate:       snap.LastSavedDate.String(),
	})
}

func decodeEntity(raw []byte, userID string, date model.CalendarDate) (model.Snapshot, error) {
	var ent snapshotEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return model.Snapshot{}, backend.Malformed("entity", err)
	}
	tasks := model.TaskCollection{}
	if ent.Tasks != "" {
		if err := json.Unmarshal([]byte(ent.Tasks), &tasks); err != nil {
			return model.Snapshot{}, backend.Malformed("tasks", err)
		}
		if tasks == nil {
			tasks = model.TaskCollection{}
		}
	}
	saved, err := model.ParseDate(ent.SavedDate)
	if err != nil {
		return model.Snapshot{}, backend.Malformed("saved date", err)
	}
	if saved.IsZero() {
		saved = date
	}
	if ent.UserID != "" {
		userID = ent.UserID
	}
	snap := model.Snapshot{Tasks: tasks, LastSavedDate: saved, UserID: userID}
	if err := snap.Validate(); err != nil {
		return model.Snapshot{}, backend.Malformed("snapshot", err)
	}
	return snap, nil
}
