package gpu

// Other is a GPU of a vendor without dedicated support. It relies on the
// generic DRM and hwmon readers only.
type Other struct {
	base
}

func (*Other) Kind() Kind {
	return KindOther
}
