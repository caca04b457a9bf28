package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"backend-rotaapp/internal/db"
	"backend-rotaapp/internal/imagecache"
	"backend-rotaapp/internal/shared/geo"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultPerUserLimit = 5
	defaultCheckWorkers = 4
	snapshotCacheSize   = 512
)

type Service struct {
	db           db.Querier
	resolver     *imagecache.Resolver
	perUserLimit int
	checkWorkers int

	mu        sync.Mutex
	gens      map[string]uint64
	snapshots *lru.Cache[string, Snapshot]
}

func NewService(querier db.Querier, resolver *imagecache.Resolver, perUserLimit, checkWorkers int) *Service {
	if perUserLimit <= 0 {
		perUserLimit = defaultPerUserLimit
	}
	if checkWorkers <= 0 {
		checkWorkers = defaultCheckWorkers
	}
	snapshots, _ := lru.New[string, Snapshot](snapshotCacheSize)
	return &Service{
		db:           querier,
		resolver:     resolver,
		perUserLimit: perUserLimit,
		checkWorkers: checkWorkers,
		gens:         map[string]uint64{},
		snapshots:    snapshots,
	}
}

// Aggregate builds the feed for a viewer: every other user's most recent
// markers (capped per user, so total size scales with user count), tagged
// with owner identity and the viewer's like state, sorted newest-first.
// Any failure discards the partial result and fails the whole pass.
func (s *Service) Aggregate(ctx context.Context, viewerID string, viewerLat, viewerLng float64) ([]Item, error) {
	owners, err := s.listOwners(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, owner := range owners {
		ownerItems, err := s.recentMarkers(ctx, owner)
		if err != nil {
			return nil, err
		}
		items = append(items, ownerItems...)
	}

	if err := s.checkLikes(ctx, viewerID, items); err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if err := s.resolveImages(ctx, items); err != nil {
		return nil, err
	}

	if viewerLat != 0 || viewerLng != 0 {
		for i := range items {
			items[i].DistanceKm = geo.HaversineKm(viewerLat, viewerLng, items[i].Lat, items[i].Lng)
		}
	}

	return items, nil
}

// Refresh runs an aggregation pass under a per-viewer monotonic generation:
// the last STARTED refresh wins. A slower pass that was started earlier and
// completes later is discarded instead of overwriting fresher results.
func (s *Service) Refresh(ctx context.Context, viewerID string, viewerLat, viewerLng float64) ([]Item, error) {
	gen := s.nextGeneration(viewerID)

	items, err := s.Aggregate(ctx, viewerID, viewerLat, viewerLng)
	if err != nil {
		return nil, err
	}

	s.commit(viewerID, gen, items)
	return items, nil
}

// LastSnapshot returns the most recently committed feed for a viewer.
func (s *Service) LastSnapshot(viewerID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots.Get(viewerID)
}

func (s *Service) nextGeneration(viewerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[viewerID]++
	return s.gens[viewerID]
}

func (s *Service) commit(viewerID string, gen uint64, items []Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen < s.gens[viewerID] {
		return false
	}
	s.snapshots.Add(viewerID, Snapshot{
		Generation:  gen,
		Items:       items,
		RefreshedAt: time.Now(),
	})
	return true
}

type owner struct {
	id   string
	name string
}

func (s *Service) listOwners(ctx context.Context, viewerID string) ([]owner, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, COALESCE(NULLIF(full_name,''), username)
		FROM users WHERE id != $1
		ORDER BY id
	`, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []owner
	for rows.Next() {
		var o owner
		if err := rows.Scan(&o.id, &o.name); err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	return owners, nil
}

func (s *Service) recentMarkers(ctx context.Context, o owner) ([]Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, lat, lng, title, description, like_count, comment_count, created_at
		FROM markers WHERE user_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, o.id, s.perUserLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item := Item{OwnerID: o.id, OwnerName: o.name}
		if err := rows.Scan(&item.MarkerID, &item.Lat, &item.Lng, &item.Title, &item.Description,
			&item.LikeCount, &item.CommentCount, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// checkLikes resolves the viewer's like state for every item through a
// bounded worker pool. Each worker writes only its own index, so results
// land by key regardless of completion order.
func (s *Service) checkLikes(ctx context.Context, viewerID string, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	sem := make(chan struct{}, s.checkWorkers)
	var wg sync.WaitGroup
	errs := make([]error, len(items))

	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			var liked bool
			err := s.db.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM marker_likes WHERE marker_id=$1 AND user_id=$2)
			`, items[i].MarkerID, viewerID).Scan(&liked)
			if err != nil {
				errs[i] = err
				return
			}
			items[i].IsLiked = liked
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) resolveImages(ctx context.Context, items []Item) error {
	avatars := map[string]string{}
	for i := range items {
		url, ok, err := s.resolver.ResolveMarkerImage(ctx, items[i].OwnerID, items[i].MarkerID)
		if err != nil {
			return err
		}
		items[i].ImageURL = url
		items[i].HasImage = ok

		avatar, cached := avatars[items[i].OwnerID]
		if !cached {
			avatar, err = s.resolver.ResolveAvatar(ctx, items[i].OwnerID)
			if err != nil {
				return err
			}
			avatars[items[i].OwnerID] = avatar
		}
		items[i].OwnerAvatar = avatar
	}
	return nil
}
