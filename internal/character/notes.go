package character

// AddNote returns a copy of c with a timestamped note appended under notes[session].
func AddNote(c *Character, text, session string) (*Character, error) {
	out := &Character{}
	if c != nil {
		var err error
		if out, err = c.Clone(); err != nil {
			return nil, err
		}
	}
	if out.Notes == nil {
		out.Notes = map[string][]Note{}
	}
	out.Notes[session] = append(out.Notes[session], Note{Note: text, Timestamp: Timestamp()})
	return out, nil
}
