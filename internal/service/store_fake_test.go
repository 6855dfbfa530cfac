package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/repository"

	"github.com/google/uuid"
)

// memoryDB is an in-memory Transactor. A failed transaction restores the state
// captured when it began.
type memoryDB struct {
	mu          sync.Mutex
	products    map[uuid.UUID]*domain.Product
	skus        map[uuid.UUID]*domain.SKU
	collections map[uuid.UUID]*domain.Collection

	failDeleteSKUs error
	failUpdateSKU  error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		products:    make(map[uuid.UUID]*domain.Product),
		skus:        make(map[uuid.UUID]*domain.SKU),
		collections: make(map[uuid.UUID]*domain.Collection),
	}
}

type memorySnapshot struct {
	products    map[uuid.UUID]*domain.Product
	skus        map[uuid.UUID]*domain.SKU
	collections map[uuid.UUID]*domain.Collection
}

func (db *memoryDB) snapshot() memorySnapshot {
	snap := memorySnapshot{
		products:    make(map[uuid.UUID]*domain.Product, len(db.products)),
		skus:        make(map[uuid.UUID]*domain.SKU, len(db.skus)),
		collections: make(map[uuid.UUID]*domain.Collection, len(db.collections)),
	}
	for id, p := range db.products {
		snap.products[id] = p.Clone()
	}
	for id, s := range db.skus {
		snap.skus[id] = s.Clone()
	}
	for id, c := range db.collections {
		cc := *c
		snap.collections[id] = &cc
	}
	return snap
}

func (db *memoryDB) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) (err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	snap := db.snapshot()
	defer func() {
		if p := recover(); p != nil {
			db.products, db.skus, db.collections = snap.products, snap.skus, snap.collections
			panic(p)
		}
		if err != nil {
			db.products, db.skus, db.collections = snap.products, snap.skus, snap.collections
		}
	}()

	return fn(ctx, memoryStore{db: db})
}

// skusOf returns the stored SKUs of a product; callers must not hold the lock
func (db *memoryDB) skusOf(productID uuid.UUID) []*domain.SKU {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memorySKUs{db: db}.list(productID)
}

func (db *memoryDB) product(id uuid.UUID) (*domain.Product, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, ok := db.products[id]
	return p, ok
}

func (db *memoryDB) addCollection(active bool) *domain.Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := uuid.New()
	c := &domain.Collection{
		ID:        id,
		Name:      "Collection " + id.String()[:8],
		Slug:      "collection-" + id.String()[:8],
		IsActive:  active,
		OwnerID:   uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	db.collections[id] = c
	return c
}

type memoryStore struct {
	db *memoryDB
}

func (s memoryStore) Products() repository.ProductRepository       { return memoryProducts(s) }
func (s memoryStore) SKUs() repository.SKURepository               { return memorySKUs(s) }
func (s memoryStore) Collections() repository.CollectionRepository { return memoryCollections(s) }

type memoryProducts struct {
	db *memoryDB
}

func (r memoryProducts) Create(_ context.Context, p *domain.Product) error {
	if _, ok := r.db.products[p.ID]; ok {
		return errors.New("duplicate product id")
	}
	stored := p.Clone()
	stored.SKUs = nil
	r.db.products[p.ID] = stored
	return nil
}

func (r memoryProducts) Update(_ context.Context, p *domain.Product) error {
	if _, ok := r.db.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	stored := p.Clone()
	stored.SKUs = nil
	r.db.products[p.ID] = stored
	return nil
}

func (r memoryProducts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.db.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	for _, sku := range r.db.skus {
		if sku.ProductID == id {
			return errors.New("skus still reference product")
		}
	}
	delete(r.db.products, id)
	return nil
}

func (r memoryProducts) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.db.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p.Clone(), nil
}

func (r memoryProducts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.FindByID(ctx, id)
}

func (r memoryProducts) CountByCollection(_ context.Context, collectionID uuid.UUID) (int, error) {
	count := 0
	for _, p := range r.db.products {
		if p.CollectionID != nil && *p.CollectionID == collectionID {
			count++
		}
	}
	return count, nil
}

type memorySKUs struct {
	db *memoryDB
}

func (r memorySKUs) CreateMany(_ context.Context, skus []*domain.SKU) error {
	keys := make(map[string]struct{})
	for _, existing := range r.db.skus {
		keys[existing.ProductID.String()+existing.Combination.Key()] = struct{}{}
	}
	for _, sku := range skus {
		key := sku.ProductID.String() + sku.Combination.Key()
		if _, dup := keys[key]; dup {
			return domain.NewConflictError("Duplicate variant combination for product")
		}
		keys[key] = struct{}{}
		r.db.skus[sku.ID] = sku.Clone()
	}
	return nil
}

func (r memorySKUs) DeleteByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	if r.db.failDeleteSKUs != nil {
		return 0, r.db.failDeleteSKUs
	}
	var n int64
	for id, sku := range r.db.skus {
		if sku.ProductID == productID {
			delete(r.db.skus, id)
			n++
		}
	}
	return n, nil
}

func (r memorySKUs) list(productID uuid.UUID) []*domain.SKU {
	out := []*domain.SKU{}
	for _, sku := range r.db.skus {
		if sku.ProductID == productID {
			out = append(out, sku.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Combination.Key() < out[j].Combination.Key() })
	return out
}

func (r memorySKUs) ListByProduct(_ context.Context, productID uuid.UUID) ([]*domain.SKU, error) {
	return r.list(productID), nil
}

func (r memorySKUs) Update(_ context.Context, sku *domain.SKU) error {
	if r.db.failUpdateSKU != nil {
		return r.db.failUpdateSKU
	}
	if _, ok := r.db.skus[sku.ID]; !ok {
		return repository.ErrSKUNotFound
	}
	r.db.skus[sku.ID] = sku.Clone()
	return nil
}

func (r memorySKUs) ClearDimensions(_ context.Context, productID uuid.UUID, at time.Time) error {
	for _, sku := range r.db.skus {
		if sku.ProductID == productID && sku.Dimensions != nil {
			sku.Dimensions = nil
			sku.UpdatedAt = at
		}
	}
	return nil
}

type memoryCollections struct {
	db *memoryDB
}

func (r memoryCollections) Create(_ context.Context, c *domain.Collection) error {
	for _, existing := range r.db.collections {
		if existing.Name == c.Name || existing.Slug == c.Slug {
			return repository.ErrCollectionAlreadyExists
		}
	}
	cc := *c
	r.db.collections[c.ID] = &cc
	return nil
}

func (r memoryCollections) List(_ context.Context) ([]*domain.Collection, error) {
	out := []*domain.Collection{}
	for _, c := range r.db.collections {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memoryCollections) FindByID(_ context.Context, id uuid.UUID) (*domain.Collection, error) {
	c, ok := r.db.collections[id]
	if !ok {
		return nil, repository.ErrCollectionNotFound
	}
	cc := *c
	return &cc, nil
}

func (r memoryCollections) ResolveCollection(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	return r.FindByID(ctx, id)
}

func (r memoryCollections) SetActive(_ context.Context, id uuid.UUID, active bool, at time.Time) error {
	c, ok := r.db.collections[id]
	if !ok {
		return repository.ErrCollectionNotFound
	}
	c.IsActive = active
	c.UpdatedAt = at
	return nil
}

func (r memoryCollections) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.db.collections[id]; !ok {
		return repository.ErrCollectionNotFound
	}
	for _, p := range r.db.products {
		if p.CollectionID != nil && *p.CollectionID == id {
			return repository.ErrCollectionInUse
		}
	}
	delete(r.db.collections, id)
	return nil
}
