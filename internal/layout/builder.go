package layout

// builder collects the elements of a staff. Elements are only appended,
// the last note glyph can be patched through the builder.
type builder struct {
	elements []Element
	lastNote *NoteGlyph
}

func (b *builder) command(c Command) {
	b.elements = append(b.elements, c)
}

func (b *builder) bar(text string) {
	b.elements = append(b.elements, &Bar{Text: text})
}

func (b *builder) note(g *NoteGlyph) {
	b.elements = append(b.elements, g)
	b.lastNote = g
}

func (b *builder) lastIsBar() bool {
	if len(b.elements) == 0 {
		return false
	}
	_, ok := b.elements[len(b.elements)-1].(*Bar)
	return ok
}

func (b *builder) tieLast() {
	if b.lastNote != nil {
		b.lastNote.tie()
	}
}

// dotLast extends the last note glyph by a dot, which replaces a tie.
func (b *builder) dotLast() {
	if b.lastNote != nil {
		b.lastNote.Tied = false
		b.lastNote.Dots++
	}
}

// finish converts the final bar into a terminal bar.
func (b *builder) finish(repeat bool) error {
	if !b.lastIsBar() {
		return ErrNoTerminalBar
	}
	last := b.elements[len(b.elements)-1].(*Bar)
	last.Terminal = true
	last.Repeat = repeat
	return nil
}
