package keyword

// RegisterStickyBuffer registers a keyword that designates an
// inspection buffer rather than producing a match condition. The
// keyword takes no argument text and carries the StickyBuffer flag.
func RegisterStickyBuffer(r *Registry, name, desc, url string, setup SetupFn) (ID, error) {
	return r.Register(Registration{
		Name:  name,
		Desc:  desc,
		URL:   url,
		Setup: setup,
		Flags: FlagNoOption | FlagStickyBuffer,
	})
}
