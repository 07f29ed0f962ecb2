package vocab

// Default weight bounds for values without a tuned entry.
const (
	defaultBaseWeight = 0.05
	defaultWeightCap  = 0.08
)

// NewDefault returns the built-in trait vocabulary. Base weights and caps for
// the tuned values come from corpus experiments; everything else uses the
// defaults. Synonyms carry both Chinese and English forms because corpus
// descriptions mix scripts freely.
func NewDefault() *Vocabulary {
	return New([]Dimension{
		{
			ID:       "life_form",
			GateOnly: true,
			Values: []Value{
				{Canonical: "tree", BaseWeight: 0.05, WeightCap: 0.05, Synonyms: []string{"喬木", "乔木", "大樹"}},
				{Canonical: "shrub", BaseWeight: 0.05, WeightCap: 0.05, Synonyms: []string{"灌木"}},
				{Canonical: "herb", BaseWeight: 0.05, WeightCap: 0.05, Synonyms: []string{"草本", "herbaceous"}},
				{Canonical: "vine", BaseWeight: 0.06, WeightCap: 0.06, Synonyms: []string{"藤本", "climber", "蔓性", "攀緣"}},
			},
		},
		{
			ID: "leaf_arrangement",
			Values: []Value{
				{Canonical: "alternate", BaseWeight: 0.05, WeightCap: 0.06, Synonyms: []string{"互生"}},
				{Canonical: "opposite", BaseWeight: 0.05, WeightCap: 0.06, Synonyms: []string{"對生", "对生"}},
				{Canonical: "whorled", BaseWeight: 0.06, WeightCap: 0.09, Synonyms: []string{"輪生", "轮生"}},
				{Canonical: "basal", BaseWeight: 0.06, WeightCap: 0.09, Synonyms: []string{"基生", "蓮座", "叢生"}},
			},
		},
		{
			ID: "leaf_type",
			Values: []Value{
				{Canonical: "simple", BaseWeight: 0.05, WeightCap: 0.08, Synonyms: []string{"單葉", "单叶", "simple leaf"}},
				{Canonical: "compound", BaseWeight: 0.05, WeightCap: 0.08, Synonyms: []string{"複葉", "复叶", "compound leaf"}},
				{Canonical: "pinnate", BaseWeight: 0.05, WeightCap: 0.07, Synonyms: []string{"羽狀複葉", "羽狀", "pinnate leaves"}},
				{Canonical: "bipinnate", BaseWeight: 0.08, WeightCap: 0.12, Synonyms: []string{"二回羽狀", "二回羽狀複葉", "bipinnate leaves"}},
				{Canonical: "palmate", BaseWeight: 0.07, WeightCap: 0.10, Synonyms: []string{"掌狀複葉", "掌狀", "palmate leaves"}},
			},
		},
		{
			ID: "leaf_margin",
			Values: []Value{
				{Canonical: "entire", BaseWeight: 0.05, WeightCap: 0.07, Synonyms: []string{"全緣", "全缘"}},
				{Canonical: "serrate", BaseWeight: 0.05, WeightCap: 0.07, Synonyms: []string{"鋸齒", "锯齿", "serrated", "dentate"}},
				{Canonical: "wavy", Synonyms: []string{"波狀", "波狀緣", "undulate"}},
				{Canonical: "lobed", Synonyms: []string{"裂葉", "分裂"}},
			},
		},
		{
			ID: "leaf_texture",
			Values: []Value{
				{Canonical: "coriaceous", Synonyms: []string{"革質", "革质", "leathery"}},
				{Canonical: "papery", Synonyms: []string{"紙質", "纸质", "chartaceous"}},
				{Canonical: "succulent", Synonyms: []string{"肉質", "肉质", "fleshy"}},
			},
		},
		{
			ID: "leaf_base",
			Values: []Value{
				{Canonical: "cuneate", Synonyms: []string{"楔形", "基部楔形"}},
				{Canonical: "cordate", Synonyms: []string{"心形", "基部心形"}},
				{Canonical: "rounded", Synonyms: []string{"基部圓形", "基部圓"}},
			},
		},
		{
			ID: "phenology",
			Values: []Value{
				{Canonical: "deciduous", Synonyms: []string{"落葉", "落葉性", "落叶"}},
				{Canonical: "evergreen", Synonyms: []string{"常綠", "常綠性", "常绿"}},
				{Canonical: "semi_evergreen", Synonyms: []string{"半常綠", "半落葉"}},
			},
		},
		{
			ID: "flower_color",
			Values: []Value{
				{Canonical: "white", BaseWeight: 0.05, WeightCap: 0.07, Synonyms: []string{"白花", "白色花", "white flower"}},
				{Canonical: "yellow", BaseWeight: 0.05, WeightCap: 0.07, Synonyms: []string{"黃花", "黄花", "yellow flower"}},
				{Canonical: "red", BaseWeight: 0.05, WeightCap: 0.07, Synonyms: []string{"紅花", "红花", "red flower"}},
				{Canonical: "purple", BaseWeight: 0.05, WeightCap: 0.07, Synonyms: []string{"紫花", "紫色花", "purple flower"}},
				{Canonical: "pink", Synonyms: []string{"粉紅花", "粉花", "pink flower"}},
				{Canonical: "orange", Synonyms: []string{"橙花", "橘花", "orange flower"}},
			},
		},
		{
			ID: "inflorescence",
			Values: []Value{
				{Canonical: "raceme", BaseWeight: 0.06, WeightCap: 0.09, Synonyms: []string{"總狀花序", "总状花序"}},
				{Canonical: "panicle", BaseWeight: 0.06, WeightCap: 0.09, Synonyms: []string{"圓錐花序", "圆锥花序"}},
				{Canonical: "cyme", BaseWeight: 0.06, WeightCap: 0.09, Synonyms: []string{"聚繖花序", "聚傘花序"}},
				{Canonical: "umbel", BaseWeight: 0.06, WeightCap: 0.09, Synonyms: []string{"繖形花序", "傘形花序"}},
				{Canonical: "spike", BaseWeight: 0.06, WeightCap: 0.09, Synonyms: []string{"穗狀花序", "穗状花序"}},
				{Canonical: "capitulum", BaseWeight: 0.06, WeightCap: 0.09, Synonyms: []string{"頭狀花序", "头状花序"}},
				{Canonical: "corymb", Synonyms: []string{"繖房花序"}},
				{Canonical: "spadix", Synonyms: []string{"佛焰花序", "佛焰苞"}},
				{Canonical: "solitary", Synonyms: []string{"單生花", "單生"}},
			},
		},
		{
			ID: "fruit_type",
			Values: []Value{
				{Canonical: "pod", BaseWeight: 0.08, WeightCap: 0.12, Synonyms: []string{"莢果", "荚果", "legume"}},
				{Canonical: "berry", Synonyms: []string{"漿果", "浆果"}},
				{Canonical: "drupe", Synonyms: []string{"核果"}},
				{Canonical: "capsule", Synonyms: []string{"蒴果"}},
				{Canonical: "nut", Synonyms: []string{"堅果", "坚果"}},
				{Canonical: "samara", Synonyms: []string{"翅果"}},
			},
		},
		{
			ID: "fruit_shape",
			Values: []Value{
				{Canonical: "globose", Synonyms: []string{"球形果"}},
				{Canonical: "ovoid", Synonyms: []string{"卵形果"}},
				{Canonical: "ellipsoid", Synonyms: []string{"橢圓形果"}},
			},
		},
		{
			ID: "reproductive_system",
			Values: []Value{
				{Canonical: "dioecious", Synonyms: []string{"雌雄異株", "雌雄异株"}},
				{Canonical: "monoecious", Synonyms: []string{"雌雄同株"}},
				{Canonical: "bisexual_flower", Synonyms: []string{"兩性花", "两性花"}},
				{Canonical: "unisexual_flower", Synonyms: []string{"單性花", "单性花"}},
			},
		},
		{
			ID: "endemism",
			Values: []Value{
				{Canonical: "endemic", Synonyms: []string{"特有種", "特有", "endemic species"}},
			},
		},
		{
			ID: "trunk_root",
			Values: []Value{
				{Canonical: "buttress", BaseWeight: 0.12, WeightCap: 0.18, Synonyms: []string{"板根", "buttress root"}},
				{Canonical: "aerial_root", BaseWeight: 0.16, WeightCap: 0.22, Synonyms: []string{"氣生根", "氣根", "气生根", "aerial root", "prop root"}},
			},
		},
		{
			ID: "special_features",
			Values: []Value{
				{Canonical: "thorns", BaseWeight: 0.08, WeightCap: 0.12, Synonyms: []string{"有刺", "具刺", "thorn", "spine", "prickle"}},
				{Canonical: "viviparous", BaseWeight: 0.22, WeightCap: 0.30, Synonyms: []string{"胎生苗", "胎生", "viviparous seedling"}},
				{Canonical: "bract_red", Synonyms: []string{"紅苞", "苞葉紅色"}},
				{Canonical: "latex", Synonyms: []string{"乳汁", "白色乳汁", "milky sap"}},
			},
		},
	})
}

// withDefaults fills in weight bounds for values declared without them.
func withDefaults(v Value) Value {
	if v.BaseWeight == 0 {
		v.BaseWeight = defaultBaseWeight
	}
	if v.WeightCap == 0 {
		v.WeightCap = defaultWeightCap
	}
	return v
}
