// Package repotest holds the behavioral checks every repository
// implementation must pass. The memory store runs them on every test run;
// the postgres and mongo stores run them when a test database is configured.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
	"github.com/vedran77/circle/internal/service"
)

// Stores is one implementation's set of repositories.
type Stores struct {
	Users    repository.UserRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Follows  repository.FollowRepository
}

// Run executes every check as a subtest. newStores is called once per
// subtest. Implementations backed by a shared database may hand out the same
// repositories each time: every check creates its own uniquely named users.
func Run(t *testing.T, newStores func(t *testing.T) Stores) {
	checks := []struct {
		name string
		fn   func(t *testing.T, s Stores)
	}{
		{"UserUniqueness", testUserUniqueness},
		{"LikeDoubleToggle", testLikeDoubleToggle},
		{"LikeMissingPost", testLikeMissingPost},
		{"ConcurrentLikes", testConcurrentLikes},
		{"DeleteCascadesComments", testDeleteCascadesComments},
		{"CommentAuthor", testCommentAuthor},
		{"CommentVersusPostDelete", testCommentVersusPostDelete},
		{"FollowToggle", testFollowToggle},
		{"SelfFollow", testSelfFollow},
		{"ConcurrentFollows", testConcurrentFollows},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			c.fn(t, newStores(t))
		})
	}
}

func newUser(t *testing.T, s Stores) *domain.User {
	t.Helper()
	name := "u" + uuid.NewString()[:12]
	now := time.Now().UTC().Truncate(time.Millisecond)
	u := &domain.User{
		ID:             uuid.New(),
		Username:       name,
		Email:          name + "@x.com",
		PasswordHash:   "hash",
		ProfilePicture: "https://img.example/" + name + ".png",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func newPost(t *testing.T, s Stores, author uuid.UUID) *domain.Post {
	t.Helper()
	p := &domain.Post{
		ID:        uuid.New(),
		UserID:    author,
		Text:      "post " + uuid.NewString()[:8],
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.Posts.Create(context.Background(), p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func newComment(postID, author uuid.UUID) *domain.Comment {
	return &domain.Comment{
		ID:        uuid.New(),
		PostID:    postID,
		UserID:    author,
		Text:      "comment",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func likerIDs(likes []domain.Like) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.User.ID)
	}
	return ids
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameSet(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]int, len(a))
	for _, id := range a {
		set[id]++
	}
	for _, id := range b {
		if set[id] == 0 {
			return false
		}
		set[id]--
	}
	return true
}

func testUserUniqueness(t *testing.T, s Stores) {
	ctx := context.Background()
	u := newUser(t, s)

	dupEmail := &domain.User{ID: uuid.New(), Username: "u" + uuid.NewString()[:12], Email: u.Email, PasswordHash: "hash"}
	if err := s.Users.Create(ctx, dupEmail); !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want duplicate email", err)
	}
	dupName := &domain.User{ID: uuid.New(), Username: u.Username, Email: uuid.NewString() + "@x.com", PasswordHash: "hash"}
	if err := s.Users.Create(ctx, dupName); !errors.Is(err, repository.ErrDuplicateUsername) {
		t.Fatalf("err = %v, want duplicate username", err)
	}

	got, err := s.Users.GetByEmail(ctx, u.Email)
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetByEmail = %+v, %v", got, err)
	}
	if missing, err := s.Users.GetByID(ctx, uuid.New()); missing != nil || err != nil {
		t.Fatalf("GetByID(unknown) = %+v, %v", missing, err)
	}
}

func testLikeDoubleToggle(t *testing.T, s Stores) {
	ctx := context.Background()
	author := newUser(t, s)
	early := newUser(t, s)
	liker := newUser(t, s)
	post := newPost(t, s, author.ID)

	if _, err := s.Posts.ToggleLike(ctx, post.ID, early.ID); err != nil {
		t.Fatal(err)
	}
	before, err := s.Posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}

	likes, err := s.Posts.ToggleLike(ctx, post.ID, liker.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 2 || likes[0].User.ID != liker.ID {
		t.Fatalf("likes after like = %v, want %s first", likerIDs(likes), liker.ID)
	}
	if likes[0].User.Username != liker.Username || likes[0].User.ProfilePicture != liker.ProfilePicture {
		t.Fatalf("liker summary = %+v", likes[0].User)
	}

	likes, err = s.Posts.ToggleLike(ctx, post.ID, liker.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(likerIDs(likes), likerIDs(before.Likes)) {
		t.Fatalf("likes after double toggle = %v, want %v", likerIDs(likes), likerIDs(before.Likes))
	}

	after, err := s.Posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(likerIDs(after.Likes), likerIDs(before.Likes)) {
		t.Fatalf("stored likes = %v, want %v", likerIDs(after.Likes), likerIDs(before.Likes))
	}
	if after.Author == nil || after.Author.ProfilePicture != author.ProfilePicture {
		t.Fatalf("author summary = %+v", after.Author)
	}
}

func testLikeMissingPost(t *testing.T, s Stores) {
	u := newUser(t, s)
	if _, err := s.Posts.ToggleLike(context.Background(), uuid.New(), u.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func testConcurrentLikes(t *testing.T, s Stores) {
	ctx := context.Background()
	author := newUser(t, s)
	post := newPost(t, s, author.ID)

	const n = 20
	likers := make([]uuid.UUID, n)
	for i := range likers {
		likers[i] = newUser(t, s).ID
	}

	var wg sync.WaitGroup
	for _, id := range likers {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := s.Posts.ToggleLike(ctx, post.ID, id); err != nil {
				t.Error(err)
			}
		}(id)
	}
	wg.Wait()

	got, err := s.Posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sameSet(likerIDs(got.Likes), likers) {
		t.Fatalf("likes = %d, want all %d likers exactly once", len(got.Likes), n)
	}
}

func testDeleteCascadesComments(t *testing.T, s Stores) {
	ctx := context.Background()
	author := newUser(t, s)
	doomed := newPost(t, s, author.ID)
	kept := newPost(t, s, author.ID)

	var doomedComments []uuid.UUID
	for i := 0; i < 3; i++ {
		c := newComment(doomed.ID, author.ID)
		if err := s.Comments.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
		doomedComments = append(doomedComments, c.ID)
	}
	if err := s.Comments.Create(ctx, newComment(kept.ID, author.ID)); err != nil {
		t.Fatal(err)
	}

	if err := s.Posts.Delete(ctx, doomed.ID); err != nil {
		t.Fatal(err)
	}

	if p, err := s.Posts.GetByID(ctx, doomed.ID); p != nil || err != nil {
		t.Fatalf("deleted post still readable: %+v, %v", p, err)
	}
	left, err := s.Comments.ListByPost(ctx, doomed.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Fatalf("%d comments survived cascade", len(left))
	}
	for _, id := range doomedComments {
		if c, _ := s.Comments.GetByID(ctx, id); c != nil {
			t.Fatalf("comment %s survived cascade", id)
		}
	}
	other, err := s.Comments.ListByPost(ctx, kept.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 {
		t.Fatalf("unrelated comments = %d, want 1", len(other))
	}

	if err := s.Posts.Delete(ctx, doomed.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete err = %v, want not found", err)
	}
}

func testCommentAuthor(t *testing.T, s Stores) {
	ctx := context.Background()
	author := newUser(t, s)
	commenter := newUser(t, s)
	post := newPost(t, s, author.ID)

	if err := s.Comments.Create(ctx, newComment(uuid.New(), commenter.ID)); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("comment on missing post: err = %v, want not found", err)
	}

	c := newComment(post.ID, commenter.ID)
	if err := s.Comments.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	got, err := s.Comments.GetByID(ctx, c.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	want := commenter.Summary()
	if got.Author == nil || *got.Author != want {
		t.Fatalf("author = %+v, want %+v", got.Author, want)
	}

	list, err := s.Comments.ListByPost(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Author == nil || *list[0].Author != want {
		t.Fatalf("listed comments = %+v", list)
	}

	if err := s.Comments.Delete(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Comments.Delete(ctx, c.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete err = %v, want not found", err)
	}
}

// testCommentVersusPostDelete races comment creation against the post's
// deletion. Whatever interleaving wins, no comment may outlive its post.
func testCommentVersusPostDelete(t *testing.T, s Stores) {
	ctx := context.Background()
	author := newUser(t, s)

	const rounds, writers = 5, 8
	for round := 0; round < rounds; round++ {
		post := newPost(t, s, author.ID)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created []uuid.UUID
		)
		start := make(chan struct{})
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				c := newComment(post.ID, author.ID)
				err := s.Comments.Create(ctx, c)
				switch {
				case err == nil:
					mu.Lock()
					created = append(created, c.ID)
					mu.Unlock()
				case !errors.Is(err, repository.ErrNotFound):
					t.Errorf("create comment: %v", err)
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if err := s.Posts.Delete(ctx, post.ID); err != nil {
				t.Errorf("delete post: %v", err)
			}
		}()
		close(start)
		wg.Wait()

		left, err := s.Comments.ListByPost(ctx, post.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(left) != 0 {
			t.Fatalf("round %d: %d comments outlived their post", round, len(left))
		}
		for _, id := range created {
			if c, _ := s.Comments.GetByID(ctx, id); c != nil {
				t.Fatalf("round %d: comment %s outlived its post", round, id)
			}
		}
	}
}

func testFollowToggle(t *testing.T, s Stores) {
	ctx := context.Background()
	target := newUser(t, s)
	bob := newUser(t, s)
	carol := newUser(t, s)

	if _, err := s.Follows.Toggle(ctx, bob.ID, target.ID); err != nil {
		t.Fatal(err)
	}
	followersBefore, _ := s.Follows.ListFollowers(ctx, target.ID)
	followingBefore, _ := s.Follows.ListFollowing(ctx, carol.ID)

	state, err := s.Follows.Toggle(ctx, carol.ID, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !state.Following || state.FollowerCount != 2 || state.FollowingCount != 1 {
		t.Fatalf("state after follow = %+v", state)
	}
	followers, _ := s.Follows.ListFollowers(ctx, target.ID)
	if !sameSet(followers, []uuid.UUID{bob.ID, carol.ID}) {
		t.Fatalf("followers = %v", followers)
	}

	state, err = s.Follows.Toggle(ctx, carol.ID, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Following || state.FollowerCount != 1 || state.FollowingCount != 0 {
		t.Fatalf("state after unfollow = %+v", state)
	}
	followersAfter, _ := s.Follows.ListFollowers(ctx, target.ID)
	followingAfter, _ := s.Follows.ListFollowing(ctx, carol.ID)
	if !sameSet(followersAfter, followersBefore) || !sameSet(followingAfter, followingBefore) {
		t.Fatalf("double toggle changed the graph: followers %v -> %v, following %v -> %v",
			followersBefore, followersAfter, followingBefore, followingAfter)
	}

	if _, err := s.Follows.Toggle(ctx, bob.ID, uuid.New()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("follow unknown user: err = %v, want not found", err)
	}
}

func testSelfFollow(t *testing.T, s Stores) {
	ctx := context.Background()
	u := newUser(t, s)
	users := service.NewUserService(s.Users, s.Follows)

	if _, err := users.ToggleFollow(ctx, u.ID, u.ID); !errors.Is(err, service.ErrCannotFollowSelf) {
		t.Fatalf("err = %v, want cannot follow self", err)
	}
	followers, _ := s.Follows.ListFollowers(ctx, u.ID)
	following, _ := s.Follows.ListFollowing(ctx, u.ID)
	if len(followers) != 0 || len(following) != 0 {
		t.Fatalf("self follow mutated the graph: followers=%v following=%v", followers, following)
	}
}

func testConcurrentFollows(t *testing.T, s Stores) {
	ctx := context.Background()
	target := newUser(t, s)

	const n = 20
	followers := make([]uuid.UUID, n)
	for i := range followers {
		followers[i] = newUser(t, s).ID
	}

	var wg sync.WaitGroup
	for _, id := range followers {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			// both directions of one pair race against each other
			if _, err := s.Follows.Toggle(ctx, id, target.ID); err != nil {
				t.Error(err)
			}
			if _, err := s.Follows.Toggle(ctx, target.ID, id); err != nil {
				t.Error(err)
			}
		}(id)
	}
	wg.Wait()

	got, err := s.Follows.ListFollowers(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sameSet(got, followers) {
		t.Fatalf("followers = %d, want all %d exactly once", len(got), n)
	}
	following, err := s.Follows.ListFollowing(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sameSet(following, followers) {
		t.Fatalf("following = %d, want %d", len(following), n)
	}
}
