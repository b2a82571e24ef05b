package event

// Prevention is embedded in preventable events. Listeners run synchronously
// on the emitting goroutine, so the emitter reads Prevented only after Emit
// returns.
type Prevention struct {
	preventable bool
	prevented   bool
}

// NewPrevention returns a Prevention for an event of kind k.
func NewPrevention(k Kind) Prevention {
	return Prevention{preventable: k.Preventable()}
}

// Prevent vetoes the event's default consequence. It returns false if the
// event is not preventable. Calling it more than once is harmless.
func (p *Prevention) Prevent() bool {
	if !p.preventable {
		return false
	}
	p.prevented = true
	return true
}

// Prevented reports whether a listener called Prevent.
func (p *Prevention) Prevented() bool {
	return p.prevented
}

// Preventable reports whether Prevent has any effect.
func (p *Prevention) Preventable() bool {
	return p.preventable
}

// Frozen returns a copy of p that keeps its Prevented state but can no
// longer be prevented. Events handed off the emitting goroutine carry a
// frozen Prevention.
func (p *Prevention) Frozen() Prevention {
	return Prevention{prevented: p.prevented}
}
