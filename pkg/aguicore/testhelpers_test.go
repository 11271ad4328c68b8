package aguicore

// sliceStream turns a fixed slice of events into an EventStream that yields
// them in order with a nil error, mirroring how a Transport's channel-backed
// stream looks once fully buffered.
func sliceStream(events ...Event) EventStream {
	return func(yield func(Event, error) bool) {
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// errStream yields events in order, then a terminal error.
func errStream(err error, events ...Event) EventStream {
	return func(yield func(Event, error) bool) {
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
		yield(nil, err)
	}
}

// collect drains an EventStream into a slice, stopping at the first error.
func collect(stream EventStream) ([]Event, error) {
	var out []Event
	var streamErr error
	stream(func(ev Event, err error) bool {
		if err != nil {
			streamErr = err
			return false
		}
		out = append(out, ev)
		return true
	})
	return out, streamErr
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
