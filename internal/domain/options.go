package domain

// SlotPreference constrains a session type to a half-day, or leaves it
// unconstrained ("any").
type SlotPreference string

const (
	SlotMorning   SlotPreference = "morning"
	SlotAfternoon SlotPreference = "afternoon"
	SlotEvening   SlotPreference = "evening"
	SlotAny       SlotPreference = "any"
)

// Options governs both the Timetable Optimizer and, where applicable, the
// Exam Allocator. Field names are canonical per spec §3; Defaulted()
// backfills zero-valued numeric and slot-preference fields, and leaves
// booleans and FiliereOrder as given.
type Options struct {
	RemoveGaps              bool `validate:"-"`
	BalanceLoad             bool
	GroupSubjects           bool
	PreferredSlots          bool
	BalanceSlotDistribution bool

	LoadTolerance float64 `validate:"gte=0,lte=1"`
	MinBreak      int     `validate:"gte=0,lte=60"`
	MaxStartTime  int     `validate:"gte=7,lte=12"`
	MaxEndTime    int     `validate:"gte=14,lte=22"`

	RespectExisting    bool
	RespectConstraints bool

	ProcessByFiliere bool
	FiliereOrder     []string

	CMSlot SlotPreference
	TDSlot SlotPreference
	TPSlot SlotPreference

	TPPerSubjectPerSlot int `validate:"gte=1"`

	DryRun bool
}

// DefaultOptions returns an Options record with the spec's documented
// defaults: no heuristics enabled, a conservative break/window, and one TP
// of a subject per half-day.
func DefaultOptions() Options {
	return Options{
		LoadTolerance:       0.2,
		MinBreak:            15,
		MaxStartTime:        8,
		MaxEndTime:          18,
		RespectExisting:     true,
		CMSlot:              SlotAny,
		TDSlot:              SlotAny,
		TPSlot:              SlotAny,
		TPPerSubjectPerSlot: 1,
	}
}

// Defaulted returns a copy of o with zero-valued numeric fields backfilled
// from DefaultOptions, the way the teacher's constructors backfill a nil
// validator/logger/TTL before use.
func (o Options) Defaulted() Options {
	d := DefaultOptions()
	if o.LoadTolerance == 0 {
		o.LoadTolerance = d.LoadTolerance
	}
	if o.MinBreak == 0 {
		o.MinBreak = d.MinBreak
	}
	if o.MaxStartTime == 0 {
		o.MaxStartTime = d.MaxStartTime
	}
	if o.MaxEndTime == 0 {
		o.MaxEndTime = d.MaxEndTime
	}
	if o.CMSlot == "" {
		o.CMSlot = d.CMSlot
	}
	if o.TDSlot == "" {
		o.TDSlot = d.TDSlot
	}
	if o.TPSlot == "" {
		o.TPSlot = d.TPSlot
	}
	if o.TPPerSubjectPerSlot == 0 {
		o.TPPerSubjectPerSlot = d.TPPerSubjectPerSlot
	}
	return o
}

// SlotFor returns the configured slot preference for a session type.
func (o Options) SlotFor(t SessionType) SlotPreference {
	switch t {
	case SessionCM:
		return o.CMSlot
	case SessionTD:
		return o.TDSlot
	case SessionTP:
		return o.TPSlot
	default:
		return SlotAny
	}
}
