package classify

// Category identifies a coarse query subject class.
type Category string

const (
	CategoryPlant    Category = "plant"
	CategoryAnimal   Category = "animal"
	CategoryArtifact Category = "artifact"
	CategoryFood     Category = "food"
	CategoryOther    Category = "other"
)

// categoryPhrases lists the anchor phrases whose embedding centroid defines
// each category. Bilingual coverage matters: queries arrive in both Chinese
// and English and the centroid has to sit between the two.
var categoryPhrases = map[Category][]string{
	CategoryPlant: {
		"植物", "花", "樹", "草", "葉子", "果實", "種子", "樹木", "灌木", "藤蔓",
		"蕨類", "苔蘚", "藻類", "植物特徵", "開花植物", "園藝植物", "野生植物",
		"plant", "flower", "tree", "leaf", "fruit", "botanical",
	},
	CategoryAnimal: {
		"動物", "鳥", "魚", "蟲", "獸", "哺乳類", "爬蟲類", "兩棲類", "昆蟲",
		"野生動物", "寵物", "海洋生物", "animal", "bird", "fish", "insect",
	},
	CategoryArtifact: {
		"建築", "房子", "車", "機器", "工具", "家具", "電器", "人造物",
		"建築物", "橋", "道路", "雕像", "藝術品", "building", "machine", "tool",
	},
	CategoryFood: {
		"食物", "料理", "菜", "飲料", "水果", "蔬菜", "肉類", "甜點",
		"food", "dish", "cuisine", "meal",
	},
	CategoryOther: {
		"風景", "天氣", "地形", "山", "河", "海", "天空", "雲",
		"landscape", "weather", "nature", "geography",
	},
}

// Categories returns all known categories in a stable order.
func Categories() []Category {
	return []Category{CategoryPlant, CategoryAnimal, CategoryArtifact, CategoryFood, CategoryOther}
}
