package synth

// StackSize is the number of held notes the voice remembers
const StackSize = 8

// NoteStack tracks held keys for last-note priority. The newest press
// is the sounding note. Fixed capacity, no allocation.
type NoteStack struct {
	notes [StackSize]uint8
	size  int
}

// Press pushes a note. Returns false if the stack is full, in which case
// the press is dropped and nothing changes.
func (s *NoteStack) Press(note uint8) bool {
	if s.size >= StackSize {
		return false
	}
	// Re-pressing a held key moves it to the top
	s.remove(note)
	s.notes[s.size] = note
	s.size++
	return true
}

// Release removes a note wherever it is and returns the new sounding
// note (ok=false when nothing is held).
func (s *NoteStack) Release(note uint8) (uint8, bool) {
	s.remove(note)
	return s.Top()
}

// Top returns the sounding note
func (s *NoteStack) Top() (uint8, bool) {
	if s.size == 0 {
		return 0, false
	}
	return s.notes[s.size-1], true
}

// Contains reports whether a note is held
func (s *NoteStack) Contains(note uint8) bool {
	return s.index(note) >= 0
}

// Len returns how many notes are held
func (s *NoteStack) Len() int {
	return s.size
}

// Notes returns the held notes, oldest first
func (s *NoteStack) Notes() []uint8 {
	out := make([]uint8, s.size)
	copy(out, s.notes[:s.size])
	return out
}

func (s *NoteStack) index(note uint8) int {
	for i := 0; i < s.size; i++ {
		if s.notes[i] == note {
			return i
		}
	}
	return -1
}

func (s *NoteStack) remove(note uint8) bool {
	i := s.index(note)
	if i < 0 {
		return false
	}
	copy(s.notes[i:s.size-1], s.notes[i+1:s.size])
	s.size--
	s.notes[s.size] = 0
	return true
}
