package cpu

const (
	STACK_LIMIT = 16 // Maximum stack depth
)

// Stack is the return address stack. Pointer is the number of entries in use.
type Stack struct {
	Data    [STACK_LIMIT]uint16
	Pointer int
}

// Push pushes a return address. A full stack is left unchanged.
func (s *Stack) Push(value uint16) (ok bool) {
	if s.Full() {
		return
	}

	s.Data[s.Pointer] = value
	s.Pointer++
	return true
}

// Pop pops the most recent return address. An empty stack is left unchanged.
func (s *Stack) Pop() (value uint16, ok bool) {
	value, ok = s.Peek()
	if ok {
		s.Pointer--
	}
	return
}

func (s *Stack) Empty() bool {
	return s.Pointer == 0
}

func (s *Stack) Full() bool {
	return s.Pointer == STACK_LIMIT
}

func (s *Stack) Peek() (value uint16, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[s.Pointer-1], true
}

func (s *Stack) Reset() {
	clear(s.Data[:])
	s.Pointer = 0
}
