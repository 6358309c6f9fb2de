package taxonomy

// DefaultCategories are the problem areas used for improvement reports.
// Order matters: 품질 claims "고장" before anything else sees it.
var DefaultCategories = []Category{
	{Name: "품질", Markers: []string{"고장", "망가지", "불량", "내구", "품질", "내구성", "튼튼", "약하", "부서지"}},
	{Name: "배송", Markers: []string{"늦", "지연", "포장", "파손", "배송", "배달", "택배", "상자", "찌그러지"}},
	{Name: "가격", Markers: []string{"비싸", "가성비", "가격", "비용", "돈", "저렴", "비싸다"}},
	{Name: "서비스", Markers: []string{"불친절", "응답", "환불", "교환", "서비스", "고객센터", "CS", "친절"}},
	{Name: "성능", Markers: []string{"느리", "소음", "발열", "성능", "속도", "시끄럽", "뜨겁", "작동"}},
	{Name: "사용성", Markers: []string{"불편", "복잡", "사용", "어렵", "불편하", "조작", "설명서"}},
}
