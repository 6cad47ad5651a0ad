package expand

// frameKind identifies what pushed a scope frame
type frameKind int

const (
	frameRoot frameKind = iota
	frameLoop
	frameMacro
)

// frame binds the names one scope level introduces. Loop frames bind an
// element and its index; macro and root frames bind DTIG> parameters.
type frame struct {
	kind    frameKind
	element Value
	index   int
	macro   string
	params  map[string]Value
}

// scope is a stack of frames; resolution walks it from the top
type scope struct {
	frames []frame
}

func newScope(vars map[string]string) *scope {
	root := frame{kind: frameRoot, params: make(map[string]Value, len(vars))}
	for k, v := range vars {
		root.params[k] = stringValue(v)
	}
	return &scope{frames: []frame{root}}
}

func (s *scope) push(f frame) {
	s.frames = append(s.frames, f)
}

func (s *scope) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// loop returns the innermost loop frame
func (s *scope) loop() (frame, bool) {
	return s.find(func(f frame) bool { return f.kind == frameLoop })
}

// item returns the innermost loop frame bound to a model item
func (s *scope) item() (frame, bool) {
	return s.find(func(f frame) bool { return f.kind == frameLoop && f.element.kind == kindItem })
}

// prop returns the innermost loop frame bound to a sub-property
func (s *scope) prop() (frame, bool) {
	return s.find(func(f frame) bool { return f.kind == frameLoop && f.element.kind == kindProp })
}

// param resolves a DTIG> name through macro frames, then the root variables
func (s *scope) param(name string) (Value, bool) {
	f, ok := s.find(func(f frame) bool {
		if f.params == nil {
			return false
		}
		_, bound := f.params[name]
		return bound
	})
	if !ok {
		return null, false
	}
	return f.params[name], true
}

func (s *scope) find(match func(frame) bool) (frame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if match(s.frames[i]) {
			return s.frames[i], true
		}
	}
	return frame{}, false
}
