// Package testutil provides an in-memory implementation of the stores
// used by the service and HTTP layers.  It mirrors the MySQL
// repositories closely enough for tests: ids are assigned in insertion
// order, lookups return the repository sentinel errors, substring
// searches are case-insensitive and deletions cascade the way the
// schema's foreign keys do.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/campus-navigator/internal/model"
	"github.com/iliyamo/campus-navigator/internal/repository"
	"github.com/iliyamo/campus-navigator/internal/utils"
)

type favorite struct {
	id, userID, poiID uint64
}

type token struct {
	userID  uint64
	hash    string
	exp     time.Time
	revoked bool
}

// Store holds all tables behind one mutex.  The exported fields are the
// per-table views that satisfy the store interfaces.
type Store struct {
	mu        sync.Mutex
	nextID    uint64
	buildings []model.Building
	rooms     []model.Room
	pois      []model.Poi
	favorites []favorite
	users     []model.User
	tokens    []token

	// ToggleConflicts makes the next n toggles fail with
	// repository.ErrConflict without changing state.
	ToggleConflicts int
	// Toggles counts Toggle calls, including failed ones.
	Toggles int

	Buildings *Buildings
	Rooms     *Rooms
	Pois      *Pois
	Favorites *Favorites
	Users     *Users
	Tokens    *Tokens
}

func New() *Store {
	s := &Store{}
	s.Buildings = &Buildings{s}
	s.Rooms = &Rooms{s}
	s.Pois = &Pois{s}
	s.Favorites = &Favorites{s}
	s.Users = &Users{s}
	s.Tokens = &Tokens{s}
	return s
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

func contains(field, q string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(q))
}

// SeedBuilding inserts b and returns it with its id.
func (s *Store) SeedBuilding(b model.Building) model.Building {
	_ = s.Buildings.Create(context.Background(), &b)
	return b
}

// SeedRoom inserts r; it panics when the building is unknown.
func (s *Store) SeedRoom(r model.Room) model.Room {
	if err := s.Rooms.Create(context.Background(), &r); err != nil {
		panic(err)
	}
	return r
}

// SeedPoi inserts p; it panics when the building is unknown.
func (s *Store) SeedPoi(p model.Poi) model.Poi {
	if err := s.Pois.Create(context.Background(), &p); err != nil {
		panic(err)
	}
	return p
}

// SeedUser creates a user with the given password at minimum bcrypt cost.
func (s *Store) SeedUser(username, password string, superuser bool) model.User {
	id, err := s.Users.Create(context.Background(), username, password, superuser, 4)
	if err != nil {
		panic(err)
	}
	u, _ := s.Users.GetByID(context.Background(), id)
	return u
}

// FavoriteRows counts the stored favorite rows of (userID, poiID).
func (s *Store) FavoriteRows(userID, poiID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.favorites {
		if f.userID == userID && f.poiID == poiID {
			n++
		}
	}
	return n
}

// Counts returns the number of buildings, rooms, POIs and favorites.
func (s *Store) Counts() (buildings, rooms, pois, favorites int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buildings), len(s.rooms), len(s.pois), len(s.favorites)
}

func (s *Store) building(id uint64) (model.Building, bool) {
	for _, b := range s.buildings {
		if b.ID == id {
			return b, true
		}
	}
	return model.Building{}, false
}

func (s *Store) deletePois(keep func(model.Poi) bool) {
	pois := s.pois[:0]
	gone := map[uint64]bool{}
	for _, p := range s.pois {
		if keep(p) {
			pois = append(pois, p)
		} else {
			gone[p.ID] = true
		}
	}
	s.pois = pois
	favs := s.favorites[:0]
	for _, f := range s.favorites {
		if !gone[f.poiID] {
			favs = append(favs, f)
		}
	}
	s.favorites = favs
}

type Buildings struct{ s *Store }

func (r *Buildings) Create(_ context.Context, b *model.Building) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = r.s.id()
	b.CreatedAt = time.Now().UTC()
	r.s.buildings = append(r.s.buildings, *b)
	return nil
}

func (r *Buildings) GetByID(_ context.Context, id uint64) (*model.Building, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.building(id); ok {
		return &b, nil
	}
	return nil, repository.ErrBuildingNotFound
}

func (r *Buildings) First(_ context.Context) (*model.Building, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.buildings) == 0 {
		return nil, repository.ErrBuildingNotFound
	}
	b := r.s.buildings[0]
	return &b, nil
}

func (r *Buildings) List(_ context.Context, q string) ([]model.Building, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Building{}
	for _, b := range r.s.buildings {
		if q == "" || contains(b.Name, q) || contains(b.Code, q) || contains(b.Address, q) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *Buildings) SearchByName(_ context.Context, q string) ([]model.Building, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Building{}
	for _, b := range r.s.buildings {
		if contains(b.Name, q) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *Buildings) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.building(id); !ok {
		return repository.ErrBuildingNotFound
	}
	buildings := r.s.buildings[:0]
	for _, b := range r.s.buildings {
		if b.ID != id {
			buildings = append(buildings, b)
		}
	}
	r.s.buildings = buildings
	rooms := r.s.rooms[:0]
	for _, room := range r.s.rooms {
		if room.BuildingID != id {
			rooms = append(rooms, room)
		}
	}
	r.s.rooms = rooms
	r.s.deletePois(func(p model.Poi) bool { return p.BuildingID == nil || *p.BuildingID != id })
	return nil
}

type Rooms struct{ s *Store }

func (r *Rooms) Create(_ context.Context, room *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.building(room.BuildingID)
	if !ok {
		return repository.ErrBuildingNotFound
	}
	room.ID = r.s.id()
	room.BuildingName, room.BuildingCode = b.Name, b.Code
	r.s.rooms = append(r.s.rooms, *room)
	return nil
}

func (r *Rooms) GetByID(_ context.Context, id uint64) (*model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, room := range r.s.rooms {
		if room.ID == id {
			room := room
			return &room, nil
		}
	}
	return nil, repository.ErrRoomNotFound
}

func (r *Rooms) List(_ context.Context, buildingID *uint64, q string) ([]model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Room{}
	for _, room := range r.s.rooms {
		if buildingID != nil && room.BuildingID != *buildingID {
			continue
		}
		if q != "" && !contains(room.Number, q) && !contains(room.Description, q) {
			continue
		}
		out = append(out, room)
	}
	return out, nil
}

func (r *Rooms) SearchByNumber(_ context.Context, q string) ([]model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Room{}
	for _, room := range r.s.rooms {
		if contains(room.Number, q) {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r *Rooms) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, room := range r.s.rooms {
		if room.ID == id {
			r.s.rooms = append(r.s.rooms[:i], r.s.rooms[i+1:]...)
			return nil
		}
	}
	return repository.ErrRoomNotFound
}

type Pois struct{ s *Store }

func (r *Pois) Create(_ context.Context, p *model.Poi) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.BuildingID != nil {
		if _, ok := r.s.building(*p.BuildingID); !ok {
			return repository.ErrBuildingNotFound
		}
	}
	p.ID = r.s.id()
	p.CreatedAt = time.Now().UTC()
	r.s.pois = append(r.s.pois, *p)
	return nil
}

func (r *Pois) GetByID(_ context.Context, id uint64) (*model.Poi, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.pois {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, repository.ErrPoiNotFound
}

func (r *Pois) ListAll(_ context.Context) ([]model.Poi, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]model.Poi{}, r.s.pois...), nil
}

func (r *Pois) SearchByTitle(_ context.Context, q string) ([]model.Poi, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Poi{}
	for _, p := range r.s.pois {
		if contains(p.Title, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Pois) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := false
	r.s.deletePois(func(p model.Poi) bool {
		if p.ID == id {
			found = true
			return false
		}
		return true
	})
	if !found {
		return repository.ErrPoiNotFound
	}
	return nil
}

type Favorites struct{ s *Store }

func (r *Favorites) Toggle(_ context.Context, userID, poiID uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.Toggles++
	if r.s.ToggleConflicts > 0 {
		r.s.ToggleConflicts--
		return false, repository.ErrConflict
	}
	for i, f := range r.s.favorites {
		if f.userID == userID && f.poiID == poiID {
			r.s.favorites = append(r.s.favorites[:i], r.s.favorites[i+1:]...)
			return false, nil
		}
	}
	exists := false
	for _, p := range r.s.pois {
		if p.ID == poiID {
			exists = true
			break
		}
	}
	if !exists {
		return false, repository.ErrPoiNotFound
	}
	r.s.favorites = append(r.s.favorites, favorite{id: r.s.id(), userID: userID, poiID: poiID})
	return true, nil
}

func (r *Favorites) ListPoisByUser(_ context.Context, userID uint64) ([]model.Poi, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Poi{}
	for _, f := range r.s.favorites {
		if f.userID != userID {
			continue
		}
		for _, p := range r.s.pois {
			if p.ID == f.poiID {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, username, password string, superuser bool, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return 0, repository.ErrUsernameExists
		}
	}
	now := time.Now().UTC()
	u := model.User{ID: r.s.id(), Username: username, PasswordHash: hash, IsSuperuser: superuser, IsActive: true, CreatedAt: now, UpdatedAt: now}
	r.s.users = append(r.s.users, u)
	return u.ID, nil
}

func (r *Users) GetByUsername(_ context.Context, username string) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == strings.TrimSpace(username) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (r *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

// SetActive flips the is_active flag of a user.
func (r *Users) SetActive(id uint64, active bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.users {
		if r.s.users[i].ID == id {
			r.s.users[i].IsActive = active
		}
	}
}

// SetSuperuser flips the is_superuser flag of a user.
func (r *Users) SetSuperuser(id uint64, superuser bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.users {
		if r.s.users[i].ID == id {
			r.s.users[i].IsSuperuser = superuser
		}
	}
}

type Tokens struct{ s *Store }

func (r *Tokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens = append(r.s.tokens, token{userID: userID, hash: hash, exp: exp})
	return nil
}

func (r *Tokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.hash == hash {
			if t.revoked || time.Now().UTC().After(t.exp) {
				return 0, repository.ErrRefreshInvalid
			}
			return t.userID, nil
		}
	}
	return 0, repository.ErrRefreshInvalid
}

func (r *Tokens) Rotate(_ context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, t := range r.s.tokens {
		if t.hash == oldHash && t.userID == userID && !t.revoked {
			r.s.tokens[i].revoked = true
			r.s.tokens = append(r.s.tokens, token{userID: userID, hash: newHash, exp: exp})
			return nil
		}
	}
	return repository.ErrRefreshInvalid
}

func (r *Tokens) RevokeByHash(_ context.Context, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.tokens {
		if r.s.tokens[i].hash == hash {
			r.s.tokens[i].revoked = true
		}
	}
	return nil
}

func (r *Tokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.tokens {
		if r.s.tokens[i].userID == userID {
			r.s.tokens[i].revoked = true
		}
	}
	return nil
}
