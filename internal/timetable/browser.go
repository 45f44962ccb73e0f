package timetable

// Browser 会话持有的组合浏览游标。
// 由会话层显式持有并序列化，不是包级全局状态。
type Browser struct {
	List  []Combination `json:"list"`
	Index int           `json:"index"`
}

// NewBrowser 以排序后的列表创建游标，Index 为 0
func NewBrowser(ranked []Combination) *Browser {
	b := &Browser{}
	b.OnNewRankedList(ranked)
	return b
}

// OnNewRankedList 替换列表并把游标重置到第一个
func (b *Browser) OnNewRankedList(ranked []Combination) {
	b.List = ranked
	b.Index = 0
}

// Len 当前列表长度
func (b *Browser) Len() int {
	return len(b.List)
}

// Select 夹紧到 [0, len-1]；空列表不做任何事
func (b *Browser) Select(i int) {
	if len(b.List) == 0 {
		return
	}
	b.Index = clamp(i, 0, len(b.List)-1)
}

// Next 后移一位，不回绕
func (b *Browser) Next() {
	b.Select(b.Index + 1)
}

// Previous 前移一位，不回绕
func (b *Browser) Previous() {
	b.Select(b.Index - 1)
}

// Current 当前组合；列表为空时 ok=false
func (b *Browser) Current() (Combination, bool) {
	if len(b.List) == 0 || b.Index < 0 || b.Index >= len(b.List) {
		return Combination{}, false
	}
	return b.List[b.Index], true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
