// Package testutil provides in-memory implementations of the marketplace ports for tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
)

// Store keeps listings and bookmarks in memory and implements both repositories.
type Store struct {
	mu        sync.Mutex
	listings  map[string]domain.Listing
	bookmarks map[[2]string]domain.Bookmark
}

func NewStore() *Store {
	return &Store{
		listings:  make(map[string]domain.Listing),
		bookmarks: make(map[[2]string]domain.Bookmark),
	}
}

// Listings returns the listing repository view of the store.
func (s *Store) Listings() domain.ListingRepository { return (*listingRepo)(s) }

// Bookmarks returns the bookmark repository view of the store.
func (s *Store) Bookmarks() domain.BookmarkRepository { return (*bookmarkRepo)(s) }

type listingRepo Store

func (r *listingRepo) Create(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[l.ID]; ok {
		return fmt.Errorf("%w: listing %s", domain.ErrConflict, l.ID)
	}
	r.listings[l.ID] = *l
	return nil
}

func (r *listingRepo) GetByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (r *listingRepo) Update(_ context.Context, l *domain.Listing) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.listings[l.ID]
	if !ok || cur.OwnerID != l.OwnerID {
		return nil, domain.ErrNotFound
	}
	cur.Title, cur.Description, cur.Price = l.Title, l.Description, l.Price
	cur.Category, cur.Location, cur.ImageURL = l.Category, l.Location, l.ImageURL
	cur.UpdatedAt = l.UpdatedAt
	r.listings[l.ID] = cur
	return &cur, nil
}

func (r *listingRepo) ToggleSold(_ context.Context, id, ownerID string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.listings[id]
	if !ok || cur.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cur.Sold = !cur.Sold
	cur.UpdatedAt = time.Now().UTC()
	r.listings[id] = cur
	return &cur, nil
}

func (r *listingRepo) Delete(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.listings[id]
	if !ok || cur.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *listingRepo) sorted(keep func(domain.Listing) bool) []*domain.Listing {
	out := make([]*domain.Listing, 0)
	for _, l := range r.listings {
		if keep(l) {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *listingRepo) ListUnsold(_ context.Context) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(l domain.Listing) bool { return !l.Sold }), nil
}

func (r *listingRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(l domain.Listing) bool { return l.OwnerID == ownerID }), nil
}

func (r *listingRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, l := range r.listings {
		if l.OwnerID == ownerID {
			delete(r.listings, id)
			n++
		}
	}
	return n, nil
}

func (r *listingRepo) ImageURLs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var urls []string
	for _, l := range r.listings {
		if l.ImageURL != "" {
			urls = append(urls, l.ImageURL)
		}
	}
	return urls, nil
}

type bookmarkRepo Store

func (r *bookmarkRepo) Add(_ context.Context, b *domain.Bookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := [2]string{b.UserID, b.ListingID}
	if _, ok := r.bookmarks[k]; ok {
		return fmt.Errorf("%w: duplicate key value violates unique constraint", domain.ErrConflict)
	}
	r.bookmarks[k] = *b
	return nil
}

func (r *bookmarkRepo) Remove(_ context.Context, userID, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bookmarks, [2]string{userID, listingID})
	return nil
}

func (r *bookmarkRepo) Exists(_ context.Context, userID, listingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bookmarks[[2]string{userID, listingID}]
	return ok, nil
}

func (r *bookmarkRepo) ListBookmarkedListings(_ context.Context, userID string) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var marks []domain.Bookmark
	for _, b := range r.bookmarks {
		if b.UserID == userID {
			marks = append(marks, b)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].CreatedAt.After(marks[j].CreatedAt) })
	out := make([]*domain.Listing, 0, len(marks))
	for _, b := range marks {
		if l, ok := r.listings[b.ListingID]; ok {
			out = append(out, &l)
		}
	}
	return out, nil
}

func (r *bookmarkRepo) DeleteByListings(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	var n int64
	for k := range r.bookmarks {
		if set[k[1]] {
			delete(r.bookmarks, k)
			n++
		}
	}
	return n, nil
}

func (r *bookmarkRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.bookmarks {
		if k[0] == userID {
			delete(r.bookmarks, k)
			n++
		}
	}
	return n, nil
}

// ForceDeleteListing removes a listing without touching its bookmarks, leaving them dangling.
func (s *Store) ForceDeleteListing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listings, id)
}

// Storage is an in-memory object store serving URLs under BaseURL.
type Storage struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string]domain.StoredObject
}

func NewStorage() *Storage {
	return &Storage{BaseURL: "http://storage.test/listings", objects: make(map[string]domain.StoredObject)}
}

func (s *Storage) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; ok {
		return fmt.Errorf("%w: object %s", domain.ErrConflict, key)
	}
	s.objects[key] = domain.StoredObject{Key: key, Size: int64(len(data)), LastModified: time.Now().UTC()}
	return nil
}

// Put stores an object with an explicit modification time.
func (s *Storage) Put(key string, modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = domain.StoredObject{Key: key, LastModified: modified}
}

func (s *Storage) PublicURL(key string) string { return s.BaseURL + "/" + key }

func (s *Storage) KeyFromURL(url string) (string, bool) {
	prefix := s.BaseURL + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (s *Storage) List(_ context.Context, prefix string, opts domain.ListOptions) ([]domain.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) && k > opts.StartAfter {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if opts.Limit > 0 && len(keys) > opts.Limit {
		keys = keys[:opts.Limit]
	}
	out := make([]domain.StoredObject, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.objects[k])
	}
	return out, nil
}

func (s *Storage) Remove(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

// Keys returns the stored keys in order.
func (s *Storage) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Identity is an in-memory identity provider. Tokens are "token-<userID>".
type Identity struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	sessions map[string]string
	seq      int
}

func NewIdentity() *Identity {
	return &Identity{users: make(map[string]*domain.User), sessions: make(map[string]string)}
}

// AddUser registers u and returns a live token for it.
func (i *Identity) AddUser(u *domain.User) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.users[u.ID] = u
	token := "token-" + u.ID
	i.sessions[token] = u.ID
	return token
}

func (i *Identity) SignUp(_ context.Context, email, password string, p domain.Profile) (*domain.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, u := range i.users {
		if u.Email == email {
			return nil, fmt.Errorf("%w: email %s", domain.ErrConflict, email)
		}
	}
	i.seq++
	u := &domain.User{ID: fmt.Sprintf("user-%d", i.seq), Email: email, PasswordHash: password, FirstName: p.FirstName, LastName: p.LastName}
	i.users[u.ID] = u
	token := "token-" + u.ID
	i.sessions[token] = u.ID
	return &domain.Session{AccessToken: token, User: u, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (i *Identity) SignInWithPassword(_ context.Context, email, password string) (*domain.Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, u := range i.users {
		if u.Email == email && u.PasswordHash == password {
			token := "token-" + u.ID
			i.sessions[token] = u.ID
			return &domain.Session{AccessToken: token, User: u, ExpiresAt: time.Now().Add(time.Hour)}, nil
		}
	}
	return nil, domain.ErrUnauthorized
}

func (i *Identity) SignOut(_ context.Context, token string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.sessions, token)
	return nil
}

func (i *Identity) VerifyToken(_ context.Context, token string) (*domain.User, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	id, ok := i.sessions[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	u, ok := i.users[id]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

func (i *Identity) DeleteUser(_ context.Context, userID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.users[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(i.users, userID)
	for t, id := range i.sessions {
		if id == userID {
			delete(i.sessions, t)
		}
	}
	return nil
}
