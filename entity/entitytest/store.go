// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entitytest

import (
	"math/big"
	"time"

	"github.com/diffeo/go-restler/entity"
	"github.com/satori/go.uuid"
)

// TestKinds checks that every kind is registered, in order, and can
// be found by either of its names.
func (s *Suite) TestKinds() {
	var names []string
	for _, kind := range s.Database.Kinds() {
		names = append(names, kind.Name)
	}
	s.Equal([]string{"Author", "Book", "Tag", "Edition"}, names)

	store, err := s.Database.Store("Author")
	if s.NoError(err) {
		s.Equal("author", store.Kind().MemberName)
		s.Equal("authors", store.Kind().CollectionName)
	}
	store, err = s.Database.Store("edition")
	if s.NoError(err) {
		s.Equal("Edition", store.Kind().Name)
	}

	_, err = s.Database.Store("Publisher")
	s.Equal(entity.ErrNoSuchKind{Name: "Publisher"}, err)
}

// TestCreateGet stores a member and reads it back.
func (s *Suite) TestCreateGet() {
	store := s.Store("Author")
	m := store.New()
	s.False(m.Saved())
	s.Require().NoError(m.Set("name", "Jane Austen"))
	s.Require().NoError(store.Create(s.ctx, m))
	s.True(m.Saved())
	s.Require().NotNil(m.ID())
	s.IsType(int64(0), m.ID())

	got, err := store.Get(s.ctx, m.Key())
	if s.NoError(err) {
		s.True(got.Saved())
		s.Equal(m.ID(), got.ID())
		s.Equal("Jane Austen", s.Value(got, "name"))
		s.Nil(s.Value(got, "slug"))
	}
}

// TestGeneratedIntegerKeys checks that integer keys are distinct and
// increasing.
func (s *Suite) TestGeneratedIntegerKeys() {
	first := s.Create("Author", map[string]interface{}{"name": "A"})
	second := s.Create("Author", map[string]interface{}{"name": "B"})
	s.True(second.ID().(int64) > first.ID().(int64))
}

// TestExplicitKey checks that a caller-provided key is kept, and a
// second member with the same key is rejected.
func (s *Suite) TestExplicitKey() {
	m := s.Create("Author", map[string]interface{}{"id": 100, "name": "X"})
	s.Equal(int64(100), m.ID())

	store := s.Store("Author")
	dup := store.New()
	s.Require().NoError(dup.Set("id", 100))
	s.Require().NoError(dup.Set("name", "Y"))
	err := store.Create(s.ctx, dup)
	s.Equal(entity.ErrDuplicateKey{Kind: "Author", ID: "100"}, err)
	s.False(dup.Saved())

	got, err := store.Get(s.ctx, entity.Key{int64(100)})
	if s.NoError(err) {
		s.Equal("X", s.Value(got, "name"))
	}
}

// TestGetMissing checks the error for a key that is not stored.
func (s *Suite) TestGetMissing() {
	_, err := s.Store("Author").Get(s.ctx, entity.Key{int64(999)})
	s.Equal(entity.ErrNoSuchMember{Kind: "Author", ID: "999"}, err)
	if s.Error(err) {
		s.Equal(`Member with ID "999" not found`, err.Error())
	}
}

// TestUUIDKey checks that uuid keys are generated.
func (s *Suite) TestUUIDKey() {
	tag := s.Create("Tag", map[string]interface{}{"label": "fiction"})
	id, isString := tag.ID().(string)
	s.Require().True(isString)
	_, err := uuid.FromString(id)
	s.NoError(err)

	other := s.Create("Tag", map[string]interface{}{"label": "poetry"})
	s.NotEqual(tag.ID(), other.ID())

	got, err := s.Store("Tag").Get(s.ctx, tag.Key())
	if s.NoError(err) {
		s.Equal("fiction", s.Value(got, "label"))
	}
}

// TestCompositeKey checks a kind with a two-column primary key.
func (s *Suite) TestCompositeKey() {
	store := s.Store("Edition")

	partial := store.New()
	s.Require().NoError(partial.Set("isbn", "978-0141439518"))
	err := store.Create(s.ctx, partial)
	s.IsType(entity.ErrMalformedKey{}, err)

	s.Create("Edition", map[string]interface{}{
		"isbn": "978-0141439518", "number": 1, "pages": 480,
	})
	second := s.Create("Edition", map[string]interface{}{
		"isbn": "978-0141439518", "number": 2, "pages": 432,
	})
	s.Equal([]interface{}{"978-0141439518", int64(2)}, second.ID())

	key, err := store.Kind().ParseKey("978-0141439518,2")
	s.Require().NoError(err)
	got, err := store.Get(s.ctx, key)
	if s.NoError(err) {
		s.Equal(int64(432), s.Value(got, "pages"))
	}

	_, err = store.Get(s.ctx, entity.Key{"978-0141439518", int64(3)})
	s.Equal(entity.ErrNoSuchMember{Kind: "Edition", ID: "978-0141439518,3"}, err)
}

// TestDefaults checks that column defaults survive a round trip.
func (s *Suite) TestDefaults() {
	book := s.Create("Book", map[string]interface{}{"title": "Emma"})
	got, err := s.Store("Book").Get(s.ctx, book.Key())
	if s.NoError(err) {
		s.Equal(true, s.Value(got, "in_print"))
	}
}

// TestColumnTypes checks that each column type is stored and
// retrieved faithfully.
func (s *Suite) TestColumnTypes() {
	s.Clock.Add(24 * time.Hour)
	now := s.Clock.Now().UTC()
	author := s.Create("Author", map[string]interface{}{
		"name": "Mary Shelley",
		"born": "1797-08-30",
	})
	book := s.Create("Book", map[string]interface{}{
		"title":     "Frankenstein",
		"price":     "12.50",
		"rating":    4.25,
		"in_print":  "no",
		"published": now,
		"author_id": author.ID(),
	})

	got, err := s.Store("Book").Get(s.ctx, book.Key())
	s.Require().NoError(err)

	price, isRat := s.Value(got, "price").(*big.Rat)
	if s.True(isRat) {
		s.Equal(0, price.Cmp(big.NewRat(25, 2)))
	}
	s.Equal(4.25, s.Value(got, "rating"))
	s.Equal(false, s.Value(got, "in_print"))
	published, isTime := s.Value(got, "published").(time.Time)
	if s.True(isTime) {
		s.True(now.Equal(published), "%v != %v", now, published)
	}
	s.Equal(author.ID(), s.Value(got, "author_id"))

	gotAuthor, err := s.Store("Author").Get(s.ctx, author.Key())
	if s.NoError(err) {
		s.Equal(entity.Date{Year: 1797, Month: time.August, Day: 30}, s.Value(gotAuthor, "born"))
	}
}

// TestIsolation checks that members handed out by a store are copies.
func (s *Suite) TestIsolation() {
	store := s.Store("Author")
	m := s.Create("Author", map[string]interface{}{"name": "Original"})
	s.Require().NoError(m.Set("name", "Changed"))

	got, err := store.Get(s.ctx, m.Key())
	s.Require().NoError(err)
	s.Equal("Original", s.Value(got, "name"))

	s.Require().NoError(got.Set("name", "Also Changed"))
	again, err := store.Get(s.ctx, m.Key())
	s.Require().NoError(err)
	s.Equal("Original", s.Value(again, "name"))
}

// TestUpdate checks that changes are written back.
func (s *Suite) TestUpdate() {
	store := s.Store("Author")
	m := s.Create("Author", map[string]interface{}{"name": "Before"})
	s.Require().NoError(m.Set("name", "After"))
	s.Require().NoError(m.Set("slug", "after"))
	s.Require().NoError(store.Update(s.ctx, m))

	got, err := store.Get(s.ctx, m.Key())
	if s.NoError(err) {
		s.Equal("After", s.Value(got, "name"))
		s.Equal("after", s.Value(got, "slug"))
	}

	// a value can be cleared
	s.Require().NoError(m.Set("slug", nil))
	s.Require().NoError(store.Update(s.ctx, m))
	got, err = store.Get(s.ctx, m.Key())
	if s.NoError(err) {
		s.Nil(s.Value(got, "slug"))
	}
}

// TestUpdateErrors checks updating members that are not stored.
func (s *Suite) TestUpdateErrors() {
	store := s.Store("Author")
	m := store.New()
	s.Require().NoError(m.Set("name", "Nobody"))
	s.Equal(entity.ErrNotSaved, store.Update(s.ctx, m))

	gone := s.Create("Author", map[string]interface{}{"name": "Gone"})
	s.Require().NoError(store.Delete(s.ctx, gone))
	err := store.Update(s.ctx, gone)
	s.IsType(entity.ErrNoSuchMember{}, err)
}

// TestDelete checks that a deleted member cannot be retrieved.
func (s *Suite) TestDelete() {
	store := s.Store("Author")
	keep := s.Create("Author", map[string]interface{}{"name": "Keep"})
	drop := s.Create("Author", map[string]interface{}{"name": "Drop"})

	s.Require().NoError(store.Delete(s.ctx, drop))
	_, err := store.Get(s.ctx, drop.Key())
	s.IsType(entity.ErrNoSuchMember{}, err)
	_, err = store.Get(s.ctx, keep.Key())
	s.NoError(err)

	s.IsType(entity.ErrNoSuchMember{}, store.Delete(s.ctx, drop))
	s.Equal(entity.ErrNotSaved, store.Delete(s.ctx, store.New()))
}

// TestFind exercises filtering, ordering, and paging.
func (s *Suite) TestFind() {
	store := s.Store("Book")
	for i, title := range []string{"Emma", "Persuasion", "Sanditon", "Lady Susan", "Mansfield Park"} {
		s.Create("Book", map[string]interface{}{
			"title":    title,
			"rating":   float64(i%3) + 1,
			"in_print": i != 2,
		})
	}

	all, err := store.Find(s.ctx, entity.Query{})
	if s.NoError(err) {
		s.Equal([]interface{}{"Emma", "Persuasion", "Sanditon", "Lady Susan", "Mansfield Park"},
			s.Values(all, "title"))
		for _, m := range all {
			s.True(m.Saved())
		}
	}

	found, err := store.Find(s.ctx, entity.Query{
		Filters: []entity.Filter{{Column: "in_print", Value: "yes"}},
		OrderBy: entity.ParseOrder("title"),
	})
	if s.NoError(err) {
		s.Equal([]interface{}{"Emma", "Lady Susan", "Mansfield Park", "Persuasion"},
			s.Values(found, "title"))
	}

	found, err = store.Find(s.ctx, entity.Query{
		Filters: []entity.Filter{{Column: "rating", Op: entity.GtEq, Value: 2}},
		OrderBy: entity.ParseOrder("-rating"),
	})
	if s.NoError(err) {
		s.Equal([]interface{}{"Sanditon", "Persuasion", "Mansfield Park"},
			s.Values(found, "title"))
	}

	found, err = store.Find(s.ctx, entity.Query{
		Filters: []entity.Filter{{Column: "title", Op: entity.Like, Value: "%an%"}},
	})
	if s.NoError(err) {
		s.Equal([]interface{}{"Sanditon", "Lady Susan", "Mansfield Park"},
			s.Values(found, "title"))
	}

	q := entity.Query{OrderBy: entity.ParseOrder("title"), Offset: 1}
	q.SetLimit(2)
	found, err = store.Find(s.ctx, q)
	if s.NoError(err) {
		s.Equal([]interface{}{"Lady Susan", "Mansfield Park"}, s.Values(found, "title"))
	}

	q = entity.Query{}
	q.SetLimit(0)
	found, err = store.Find(s.ctx, q)
	if s.NoError(err) {
		s.Empty(found)
	}

	found, err = store.Find(s.ctx, entity.Query{Offset: 10})
	if s.NoError(err) {
		s.Empty(found)
	}

	found, err = store.Find(s.ctx, entity.Query{
		Filters: []entity.Filter{{Column: "title", Value: "Northanger Abbey"}},
	})
	if s.NoError(err) {
		s.NotNil(found)
		s.Empty(found)
	}

	_, err = store.Find(s.ctx, entity.Query{
		Filters: []entity.Filter{{Column: "nothing", Value: 1}},
	})
	s.IsType(entity.ErrNoSuchAttribute{}, err)
}

// TestCount checks that counts ignore paging.
func (s *Suite) TestCount() {
	store := s.Store("Author")
	for _, name := range []string{"A", "B", "C"} {
		s.Create("Author", map[string]interface{}{"name": name, "slug": "x"})
	}
	s.Create("Author", map[string]interface{}{"name": "D"})

	q := entity.Query{
		Filters: []entity.Filter{{Column: "slug", Value: "x"}},
		Offset:  1,
	}
	q.SetLimit(1)
	count, err := store.Count(s.ctx, q)
	if s.NoError(err) {
		s.Equal(3, count)
	}

	count, err = store.Count(s.ctx, entity.Query{})
	if s.NoError(err) {
		s.Equal(4, count)
	}
}

// TestFindBy checks the equality-filter helper.
func (s *Suite) TestFindBy() {
	s.Create("Author", map[string]interface{}{"name": "A", "slug": "same"})
	s.Create("Author", map[string]interface{}{"name": "B", "slug": "other"})
	s.Create("Author", map[string]interface{}{"name": "C", "slug": "same"})

	found, err := entity.FindBy(s.ctx, s.Store("Author"), map[string]interface{}{"slug": "same"})
	if s.NoError(err) {
		s.Equal([]interface{}{"A", "C"}, s.Values(found, "name"))
	}
}

// TestRelation follows a belongs-to link through the database.
func (s *Suite) TestRelation() {
	author := s.Create("Author", map[string]interface{}{"name": "Anne Bronte"})
	book := s.Create("Book", map[string]interface{}{
		"title":     "Agnes Grey",
		"author_id": author.ID(),
	})

	load := entity.DatabaseLoader(s.ctx, s.Database)
	name, err := book.Get("author.name", load)
	if s.NoError(err) {
		s.Equal("Anne Bronte", name)
	}

	s.Require().NoError(s.Store("Author").Delete(s.ctx, author))
	_, err = book.Get("author.name", load)
	s.IsType(entity.ErrNoSuchMember{}, err)
}
