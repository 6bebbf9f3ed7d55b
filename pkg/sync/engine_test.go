package sync

import (
	"context"
	"encoding/json"
	"testing"

	"mirrorsync/pkg/identity"
	"mirrorsync/pkg/models"
	"mirrorsync/pkg/remote"
	"mirrorsync/pkg/store"
)

func setup(t *testing.T) (*Engine, *remote.Mock, *identity.Static) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	m := remote.NewMock()
	ident := identity.NewStatic()
	return New(m, ident), m, ident
}

func rawPost(t *testing.T, p models.Post) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal post: %v", err)
	}
	return b
}

func rawUser(t *testing.T, u models.User) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	return b
}

func TestGetFeedUpsertsAndPassesCursorThrough(t *testing.T) {
	eng, m, _ := setup(t)
	m.Pages[models.Posts] = &remote.Page{
		Data: []json.RawMessage{
			rawPost(t, models.Post{ID: "p1", Text: "one", CreatedTS: 10}),
			rawPost(t, models.Post{ID: "p2", Text: "two", CreatedTS: 20}),
		},
		NextCursor: "opaque-token",
	}

	page := eng.GetFeed(context.Background(), 20, "")
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 posts; got %d", len(page.Data))
	}
	if page.NextCursor != "opaque-token" {
		t.Fatalf("expected cursor passthrough; got %q", page.NextCursor)
	}
	// Both records must now be in the mirror.
	if n, _ := store.Count(models.Posts); n != 2 {
		t.Fatalf("expected 2 mirrored posts; got %d", n)
	}
}

func TestGetFeedFallsBackToMirrorOnFailure(t *testing.T) {
	eng, m, _ := setup(t)
	// Seed the mirror through a successful pass first.
	m.Pages[models.Posts] = &remote.Page{Data: []json.RawMessage{
		rawPost(t, models.Post{ID: "p1", Text: "old", CreatedTS: 10}),
		rawPost(t, models.Post{ID: "p2", Text: "older", CreatedTS: 5}),
	}}
	eng.GetFeed(context.Background(), 20, "")

	m.Err = remote.ErrTimeout
	page := eng.GetFeed(context.Background(), 20, "any")
	if len(page.Data) != 2 {
		t.Fatalf("expected mirror contents on fallback; got %d posts", len(page.Data))
	}
	if page.Data[0].ID != "p1" || page.Data[1].ID != "p2" {
		t.Fatalf("expected newest-first order; got %s, %s", page.Data[0].ID, page.Data[1].ID)
	}
	// Fallback pages are terminal.
	if page.NextCursor != "" {
		t.Fatalf("expected empty cursor on fallback; got %q", page.NextCursor)
	}
}

func TestGetFeedDropsCorruptRecordsWithoutFailingBatch(t *testing.T) {
	eng, m, _ := setup(t)
	m.Pages[models.Posts] = &remote.Page{Data: []json.RawMessage{
		rawPost(t, models.Post{ID: "p1", CreatedTS: 3}),
		json.RawMessage(`{"id":"p-bad","likes":"{{{not json"}`),
		rawPost(t, models.Post{ID: "p2", CreatedTS: 1}),
	}}

	page := eng.GetFeed(context.Background(), 20, "")
	if len(page.Data) != 2 {
		t.Fatalf("expected 2 survivors of 3; got %d", len(page.Data))
	}
	if n, _ := store.Count(models.Posts); n != 2 {
		t.Fatalf("expected 2 mirrored posts; got %d", n)
	}
}

func TestGetFeedUpsertIsIdempotent(t *testing.T) {
	eng, m, _ := setup(t)
	m.Pages[models.Posts] = &remote.Page{Data: []json.RawMessage{
		rawPost(t, models.Post{ID: "p1", Text: "hi"}),
	}}
	eng.GetFeed(context.Background(), 20, "")
	eng.GetFeed(context.Background(), 20, "")
	if n, _ := store.Count(models.Posts); n != 1 {
		t.Fatalf("expected 1 post after double sync; got %d", n)
	}
}

func TestSearchPostsEmptyTermMakesNoCalls(t *testing.T) {
	eng, m, _ := setup(t)
	for _, term := range []string{"", "   ", "\t\n"} {
		if got := eng.SearchPosts(context.Background(), term); len(got) != 0 {
			t.Fatalf("expected empty result for blank term %q", term)
		}
	}
	if n := m.CallCount("Search"); n != 0 {
		t.Fatalf("expected zero remote calls for blank terms; got %d", n)
	}
}

func TestSearchPostsDegradesToLocalScan(t *testing.T) {
	eng, m, _ := setup(t)
	m.Pages[models.Posts] = &remote.Page{Data: []json.RawMessage{
		rawPost(t, models.Post{ID: "p1", Text: "Hello World", Username: "ada", CreatedTS: 3}),
		rawPost(t, models.Post{ID: "p2", Text: "clip", Username: "hello-fan", Video: true, CreatedTS: 2}),
		rawPost(t, models.Post{ID: "p3", Text: "unrelated", Username: "bert", CreatedTS: 1}),
	}}
	eng.GetFeed(context.Background(), 20, "")

	m.Err = remote.ErrNetwork
	got := eng.SearchPosts(context.Background(), "HELLO")
	// p1 matches text, p2 matches username but is a video post, p3 misses.
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("unexpected local search result: %+v", got)
	}
}

func TestGetUserProfileIsLocalFirst(t *testing.T) {
	eng, m, _ := setup(t)
	u := models.User{ID: "u1", Profile: models.Profile{Name: "ada"}}
	data, _ := json.Marshal(u)
	if err := store.Set(models.Users, u.ID, data); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	got := eng.GetUserProfile(context.Background(), "u1")
	if got == nil || got.ID != "u1" {
		t.Fatalf("expected mirrored profile; got %+v", got)
	}
	if n := m.CallCount("FetchByID"); n != 0 {
		t.Fatalf("expected no remote call for a mirrored profile; got %d", n)
	}
}

func TestGetUserProfileFetchesOnMissAndCaches(t *testing.T) {
	eng, m, _ := setup(t)
	m.Records[models.Users+"/u2"] = rawUser(t, models.User{ID: "u2", Profile: models.Profile{Name: "bert"}})

	got := eng.GetUserProfile(context.Background(), "u2")
	if got == nil || got.Profile.Name != "bert" {
		t.Fatalf("expected remote profile; got %+v", got)
	}
	// Second lookup comes from the mirror.
	eng.GetUserProfile(context.Background(), "u2")
	if n := m.CallCount("FetchByID"); n != 1 {
		t.Fatalf("expected exactly one remote call; got %d", n)
	}
}

func TestGetUserProfileNilOnFailure(t *testing.T) {
	eng, m, _ := setup(t)
	m.Err = remote.ErrTimeout
	if got := eng.GetUserProfile(context.Background(), "ghost"); got != nil {
		t.Fatalf("expected nil on remote failure; got %+v", got)
	}
}

func TestSyncDirectoryExcludesCurrentIdentity(t *testing.T) {
	eng, m, ident := setup(t)
	ident.Set(identity.Identity{ID: "u-self", Handle: "self"})

	// The local copy of the session identity carries state a stale remote
	// snapshot must not clobber.
	local := models.User{ID: "u-self", Profile: models.Profile{Name: "self", Bio: "local edit"}}
	data, _ := json.Marshal(local)
	if err := store.Set(models.Users, local.ID, data); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	m.Directory = []json.RawMessage{
		rawUser(t, models.User{ID: "u-self", Profile: models.Profile{Name: "self", Bio: "stale remote"}}),
		rawUser(t, models.User{ID: "u-other", Profile: models.Profile{Name: "other"}}),
	}

	if n := eng.SyncDirectory(context.Background()); n != 1 {
		t.Fatalf("expected 1 synced user; got %d", n)
	}
	row, err := store.Get(models.Users, "u-self")
	if err != nil {
		t.Fatalf("get u-self: %v", err)
	}
	var got models.User
	if err := json.Unmarshal(row, &got); err != nil {
		t.Fatalf("unmarshal u-self: %v", err)
	}
	if got != local {
		t.Fatalf("excluded record must stay untouched; got %+v", got)
	}
	if _, err := store.Get(models.Users, "u-other"); err != nil {
		t.Fatalf("expected u-other mirrored: %v", err)
	}
}

func TestSyncAllUsersWithoutIdentitySyncsEveryone(t *testing.T) {
	eng, m, _ := setup(t)
	m.Directory = []json.RawMessage{
		rawUser(t, models.User{ID: "u1"}),
		rawUser(t, models.User{ID: "u2"}),
	}
	if n := eng.SyncDirectory(context.Background()); n != 2 {
		t.Fatalf("expected 2 synced users; got %d", n)
	}
}

func TestSearchUsersDegradesToLocalScan(t *testing.T) {
	eng, m, _ := setup(t)
	m.Directory = []json.RawMessage{
		rawUser(t, models.User{ID: "u1", Profile: models.Profile{Name: "ada", DisplayName: "Ada Lovelace"}}),
		rawUser(t, models.User{ID: "u2", Profile: models.Profile{Name: "bert", DisplayName: "Bert"}}),
	}
	eng.SyncDirectory(context.Background())

	m.Err = remote.ErrNetwork
	got := eng.SearchUsers(context.Background(), "lovelace")
	if len(got) != 1 || got[0].ID != "u1" {
		t.Fatalf("unexpected local user search result: %+v", got)
	}
}

func TestGetUserByHandleMatchesMirror(t *testing.T) {
	eng, m, _ := setup(t)
	m.Directory = []json.RawMessage{
		rawUser(t, models.User{ID: "u1", Profile: models.Profile{Name: "ada"}}),
	}
	eng.SyncDirectory(context.Background())

	if got := eng.GetUserByHandle("@Ada"); got == nil || got.ID != "u1" {
		t.Fatalf("expected handle lookup to normalize and match; got %+v", got)
	}
	if got := eng.GetUserByHandle("nobody"); got != nil {
		t.Fatalf("expected nil for unknown handle; got %+v", got)
	}
}

func TestSyncUserPostsCountsUpserts(t *testing.T) {
	eng, m, _ := setup(t)
	m.Owned[models.Posts+"/u1"] = []json.RawMessage{
		rawPost(t, models.Post{ID: "p1", AuthorID: "u1", CreatedTS: 2}),
		rawPost(t, models.Post{ID: "p2", AuthorID: "u1", CreatedTS: 5}),
	}
	if n := eng.SyncUserPosts(context.Background(), "u1"); n != 2 {
		t.Fatalf("expected 2 synced posts; got %d", n)
	}
	posts := eng.GetUserPosts("u1")
	if len(posts) != 2 || posts[0].ID != "p2" {
		t.Fatalf("expected author posts newest-first; got %+v", posts)
	}
}

func TestSyncUserPostsFailureKeepsMirror(t *testing.T) {
	eng, m, _ := setup(t)
	m.Owned[models.Posts+"/u1"] = []json.RawMessage{
		rawPost(t, models.Post{ID: "p1", AuthorID: "u1"}),
	}
	eng.SyncUserPosts(context.Background(), "u1")

	m.Err = remote.ErrTimeout
	if n := eng.SyncUserPosts(context.Background(), "u1"); n != 0 {
		t.Fatalf("expected 0 on failure; got %d", n)
	}
	if got := eng.GetUserPosts("u1"); len(got) != 1 {
		t.Fatalf("mirror must keep its previous view; got %d posts", len(got))
	}
}

func TestGetPostByID(t *testing.T) {
	eng, m, _ := setup(t)
	m.Pages[models.Posts] = &remote.Page{Data: []json.RawMessage{
		rawPost(t, models.Post{ID: "p1", Text: "hi"}),
	}}
	eng.GetFeed(context.Background(), 20, "")

	if got := eng.GetPostByID("p1"); got == nil || got.Text != "hi" {
		t.Fatalf("expected mirrored post; got %+v", got)
	}
	if got := eng.GetPostByID("never-synced"); got != nil {
		t.Fatalf("expected nil for unmirrored post; got %+v", got)
	}
}
