package input

type BodyType int

const (
	EmptyBody BodyType = iota
	JSONBody
	FormBody
	RawBody
)

// Body collects the body items of the command line until they are turned
// into entities of the request.
type Body struct {
	BodyType      BodyType
	Fields        []Field
	RawJSONFields []Field // used only when BodyType == JSONBody
	Files         []Field // used only when BodyType == FormBody
	Raw           []byte  // used only when BodyType == RawBody
}

type Field struct {
	Name   string
	Value  string
	IsFile bool
}
