package lexicon

// DefaultStopwords are particles, copulas and intensifiers with no keyword value.
var DefaultStopwords = []string{
	"이", "가", "은", "는", "을", "를", "의", "에", "와", "과", "도", "로", "으로",
	"해서", "하고", "한", "그", "저", "이런", "저런", "것", "등", "및",
	"있다", "없다", "이다", "아니다", "되다", "하다", "같다",
	"들", "안", "못", "점", "너무", "정말", "진짜", "아주",
}

// DefaultPositive lists positive sentiment stems.
var DefaultPositive = []string{
	"좋다", "좋음", "만족", "훌륭", "최고", "추천", "편리", "깔끔", "우수",
	"신뢰", "예쁘다", "예쁨", "완벽", "감사", "사랑", "행복", "즐겁",
	"빠르다", "빠름", "정확", "안정", "부드럽", "맛있", "저렴", "가성비",
}

// DefaultNegative lists negative sentiment stems.
var DefaultNegative = []string{
	"나쁘다", "나쁨", "불만", "실망", "최악", "별로", "불편", "엉성", "나쁘",
	"의심", "더럽", "거칠", "비싸다", "비싼", "느리다", "느림", "부족",
	"시끄럽", "소음", "불안정", "고장", "망가지", "아쉽", "후회", "짜증",
}
