package credential

func (h *Hasher) SetGenerator(fn func(password []byte, cost int) ([]byte, error)) {
	h.generate = fn
}

func (h *Hasher) DummyHash() []byte {
	h.dummyOnce.Do(h.initDummy)
	return h.dummyHash
}
