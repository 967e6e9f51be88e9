package game

// Snapshot 世界的完整只读副本，用于广播给观察端
type Snapshot struct {
	Size   int     `json:"size"`
	Crabs  []Crab  `json:"crabs"`
	Foods  []Food  `json:"foods"`
	Paints []Paint `json:"paints"`
}

// Snapshot 深拷贝当前世界，可安全地交给其它 goroutine
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Size:   w.size,
		Crabs:  append(make([]Crab, 0, len(w.crabs)), w.crabs...),
		Foods:  append(make([]Food, 0, len(w.foods)), w.foods...),
		Paints: append(make([]Paint, 0, len(w.paints)), w.paints...),
	}
}

// Crab 按名字查找（快照侧只读）
func (s Snapshot) Crab(name string) (Crab, bool) {
	for _, c := range s.Crabs {
		if c.Name == name {
			return c, true
		}
	}
	return Crab{}, false
}
