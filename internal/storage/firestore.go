package storage

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"smartcampus/backend/internal/models"
)

const (
	colComplaints = "complaints"
	colUsers      = "users"
	colComments   = "comments"
	colNotes      = "notes"
)

// FirestoreStore keeps complaints and users in Cloud Firestore. Comments and
// notes are subcollections of their complaint document.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func wrapNotFound(err error) error {
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (f *FirestoreStore) complaint(id string) *firestore.DocumentRef {
	return f.client.Collection(colComplaints).Doc(id)
}

func decodeComplaint(snap *firestore.DocumentSnapshot) (*models.Complaint, error) {
	var c models.Complaint
	if err := snap.DataTo(&c); err != nil {
		return nil, fmt.Errorf("decode complaint %s: %w", snap.Ref.ID, err)
	}
	c.ID = snap.Ref.ID
	if c.Upvotes == nil {
		c.Upvotes = []string{}
	}
	return &c, nil
}

// CreateComplaint writes a new document. createdAt is set by the server and
// copied back from the write result.
func (f *FirestoreStore) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Upvotes == nil {
		c.Upvotes = []string{}
	}
	wr, err := f.complaint(c.ID).Create(ctx, c)
	if err != nil {
		return fmt.Errorf("create complaint: %w", err)
	}
	c.CreatedAt = wr.UpdateTime
	return nil
}

func (f *FirestoreStore) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	snap, err := f.complaint(id).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return decodeComplaint(snap)
}

// ListComplaints filters in the query. Firestore cannot order by array
// length, so vote ordering is applied after the fetch.
func (f *FirestoreStore) ListComplaints(ctx context.Context, q models.ComplaintQuery) ([]models.Complaint, error) {
	query := f.client.Collection(colComplaints).Query
	if q.CreatedBy != "" {
		query = query.Where("createdBy", "==", q.CreatedBy)
	}
	if q.Status != "" {
		query = query.Where("status", "==", string(q.Status))
	}
	if q.Category != "" {
		query = query.Where("category", "==", q.Category)
	}
	query = query.OrderBy("createdAt", firestore.Desc)
	if q.Order != models.OrderVotes && q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}

	out := make([]models.Complaint, 0, len(snaps))
	for _, snap := range snaps {
		c, err := decodeComplaint(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}

	if q.Order == models.OrderVotes {
		sort.SliceStable(out, func(i, j int) bool {
			return len(out[i].Upvotes) > len(out[j].Upvotes)
		})
		if q.Limit > 0 && len(out) > q.Limit {
			out = out[:q.Limit]
		}
	}
	return out, nil
}

func (f *FirestoreStore) update(ctx context.Context, id string, updates ...firestore.Update) (*models.Complaint, error) {
	if _, err := f.complaint(id).Update(ctx, updates); err != nil {
		return nil, wrapNotFound(err)
	}
	return f.GetComplaint(ctx, id)
}

func (f *FirestoreStore) UpdateComplaintStatus(ctx context.Context, id string, s models.Status) (*models.Complaint, error) {
	return f.update(ctx, id, firestore.Update{Path: "status", Value: string(s)})
}

func (f *FirestoreStore) AddUpvote(ctx context.Context, id, uid string) (*models.Complaint, error) {
	return f.update(ctx, id, firestore.Update{Path: "upvotes", Value: firestore.ArrayUnion(uid)})
}

func (f *FirestoreStore) RemoveUpvote(ctx context.Context, id, uid string) (*models.Complaint, error) {
	return f.update(ctx, id, firestore.Update{Path: "upvotes", Value: firestore.ArrayRemove(uid)})
}

func (f *FirestoreStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	wr, err := f.complaint(c.ComplaintID).Collection(colComments).Doc(c.ID).Create(ctx, c)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	c.CreatedAt = wr.UpdateTime
	return nil
}

func (f *FirestoreStore) GetComment(ctx context.Context, complaintID, commentID string) (*models.Comment, error) {
	snap, err := f.complaint(complaintID).Collection(colComments).Doc(commentID).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	var c models.Comment
	if err := snap.DataTo(&c); err != nil {
		return nil, fmt.Errorf("decode comment: %w", err)
	}
	c.ID = snap.Ref.ID
	c.ComplaintID = complaintID
	return &c, nil
}

func (f *FirestoreStore) ListComments(ctx context.Context, complaintID string) ([]models.Comment, error) {
	snaps, err := f.complaint(complaintID).Collection(colComments).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out := make([]models.Comment, 0, len(snaps))
	for _, snap := range snaps {
		var c models.Comment
		if err := snap.DataTo(&c); err != nil {
			return nil, fmt.Errorf("decode comment: %w", err)
		}
		c.ID = snap.Ref.ID
		c.ComplaintID = complaintID
		out = append(out, c)
	}
	return out, nil
}

func (f *FirestoreStore) DeleteComment(ctx context.Context, complaintID, commentID string) error {
	_, err := f.complaint(complaintID).Collection(colComments).Doc(commentID).Delete(ctx, firestore.Exists)
	return wrapNotFound(err)
}

func (f *FirestoreStore) CreateNote(ctx context.Context, n *models.AdminNote) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	wr, err := f.complaint(n.ComplaintID).Collection(colNotes).Doc(n.ID).Create(ctx, n)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	n.CreatedAt = wr.UpdateTime
	return nil
}

func (f *FirestoreStore) ListNotes(ctx context.Context, complaintID string) ([]models.AdminNote, error) {
	snaps, err := f.complaint(complaintID).Collection(colNotes).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	out := make([]models.AdminNote, 0, len(snaps))
	for _, snap := range snaps {
		var n models.AdminNote
		if err := snap.DataTo(&n); err != nil {
			return nil, fmt.Errorf("decode note: %w", err)
		}
		n.ID = snap.Ref.ID
		n.ComplaintID = complaintID
		out = append(out, n)
	}
	return out, nil
}

func (f *FirestoreStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	snap, err := f.client.Collection(colUsers).Doc(uid).Get(ctx)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	var u models.User
	if err := snap.DataTo(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	u.UID = snap.Ref.ID
	return &u, nil
}

// EnsureUser creates the profile in a transaction when it is missing, so two
// first requests from the same account cannot both create it.
func (f *FirestoreStore) EnsureUser(ctx context.Context, u *models.User) (*models.User, error) {
	ref := f.client.Collection(colUsers).Doc(u.UID)
	var out models.User

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err == nil {
			return snap.DataTo(&out)
		}
		if !isNotFound(err) {
			return err
		}
		out = *u
		out.Role = models.RoleStudent
		return tx.Create(ref, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", u.UID, err)
	}
	out.UID = u.UID
	return &out, nil
}

func (f *FirestoreStore) ListUsers(ctx context.Context) ([]models.User, error) {
	snaps, err := f.client.Collection(colUsers).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]models.User, 0, len(snaps))
	for _, snap := range snaps {
		var u models.User
		if err := snap.DataTo(&u); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		u.UID = snap.Ref.ID
		out = append(out, u)
	}
	return out, nil
}

func (f *FirestoreStore) SetUserRole(ctx context.Context, uid string, role models.Role) (*models.User, error) {
	_, err := f.client.Collection(colUsers).Doc(uid).Update(ctx, []firestore.Update{{Path: "role", Value: string(role)}})
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return f.GetUser(ctx, uid)
}
