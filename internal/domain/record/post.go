// internal/domain/record/post.go

package record

// PostType categorizes rescue and placement posts
type PostType string

const (
	PostFosterRequest PostType = "foster_request"
	PostAdoption      PostType = "adoption"
	PostRescue        PostType = "rescue"
	PostLost          PostType = "lost"
	PostFound         PostType = "found"
)

// PostTypes lists every known post type
var PostTypes = []PostType{
	PostFosterRequest,
	PostAdoption,
	PostRescue,
	PostLost,
	PostFound,
}

// Post field keys
const (
	FieldPostType = "postType"
	FieldSpecies  = "species"
)

// Post is a rescue, foster or adoption listing
type Post struct {
	Base        `bson:",inline"`
	Title       string   `bson:"title" json:"title"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	PostType    PostType `bson:"postType" json:"postType"`
	Species     string   `bson:"species,omitempty" json:"species,omitempty"`
	Images      []string `bson:"images,omitempty" json:"images,omitempty"`
}

// Field returns a filterable attribute by key
func (p *Post) Field(name string) (any, bool) {
	switch name {
	case FieldPostType:
		return string(p.PostType), true
	case FieldSpecies:
		return p.Species, true
	}
	return p.Base.field(name)
}

// Clone returns a copy safe to annotate per query
func (p *Post) Clone() *Post {
	c := *p
	c.Base = p.Base.clone()
	c.Images = append([]string(nil), p.Images...)
	return &c
}
