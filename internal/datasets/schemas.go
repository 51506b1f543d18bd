package datasets

import (
	"errors"
	"fmt"
	"sort"

	"edudash/internal/csvtable"
)

// ErrUnknownDataset is returned for dataset names with no schema.
var ErrUnknownDataset = errors.New("unknown dataset")

// Dataset names.
const (
	AllData    = "all_data"
	Q1         = "q1"
	Q2         = "q2"
	Q3         = "q3"
	Educated   = "educated"
	Teacher    = "teacher"
	University = "university"
)

// Column names shared across datasets.
const (
	ColRegion      = "地区"
	ColMapName     = "mapName"
	ColExpenditure = "教育经费合计"
	ColTierOne     = "一本率"
	ColKeySchool   = "重点中学比例"
	ColRatio       = "师生比"
	ColEnrollment  = "高等学校入学率"
	ColProvince    = "省份"
	ColOther       = "其他"
)

// AttainmentLevels are the educated.csv columns in stacking order, 其他 last.
var AttainmentLevels = []string{"大学(大专及以上)", "高中（含中专）", "初中", "小学", ColOther}

// AttainmentBase is the population base of educated.csv (people per 100k).
const AttainmentBase = 100000

// Spec binds a dataset name to its file and coercion schema.
type Spec struct {
	Name   string
	File   string
	Schema csvtable.Schema
}

var specs = map[string]Spec{
	AllData: {
		Name: AllData,
		File: "all_data.csv",
		Schema: csvtable.Schema{
			Name:         AllData,
			RegionColumn: ColRegion,
			Rules: map[string]csvtable.Kind{
				ColTierOne:     csvtable.Percent,
				ColKeySchool:   csvtable.Percent,
				ColEnrollment:  csvtable.Percent,
				ColRatio:       csvtable.Float,
				ColExpenditure: csvtable.Number,
			},
			Default:           csvtable.PassThrough,
			UnderscoreUnruled: true,
			Derive: func(rec csvtable.Record) {
				rec[ColMapName] = csvtable.Str(MapRegionName(rec.Text(ColRegion)))
			},
		},
	},
	Q1: {
		Name: Q1,
		File: "q1.csv",
		Schema: csvtable.Schema{
			Name:         Q1,
			RegionColumn: ColRegion,
			Rules: map[string]csvtable.Kind{
				ColEnrollment:  csvtable.Percent,
				ColExpenditure: csvtable.Number,
			},
			Default:           csvtable.PassThrough,
			UnderscoreUnruled: true,
			Require:           []string{ColExpenditure, ColEnrollment},
		},
	},
	Q2: {
		Name: Q2,
		File: "q2.csv",
		Schema: csvtable.Schema{
			Name:         Q2,
			RegionColumn: ColRegion,
			Rules: map[string]csvtable.Kind{
				ColRatio:     csvtable.Float,
				ColKeySchool: csvtable.Percent,
			},
			Default: csvtable.PassThrough,
			Require: []string{ColRatio, ColKeySchool},
		},
	},
	Q3: {
		Name: Q3,
		File: "q3.csv",
		Schema: csvtable.Schema{
			Name:         Q3,
			RegionColumn: ColRegion,
			Rules: map[string]csvtable.Kind{
				ColTierOne:   csvtable.Percent,
				ColKeySchool: csvtable.Percent,
			},
			Default: csvtable.PassThrough,
			Require: []string{ColTierOne, ColKeySchool},
		},
	},
	Educated: {
		Name: Educated,
		File: "educated.csv",
		Schema: csvtable.Schema{
			Name:         Educated,
			RegionColumn: ColRegion,
			Default:      csvtable.Int,
			PadShortRows: true,
			Derive:       deriveOtherAttainment,
		},
	},
	Teacher: {
		Name: Teacher,
		File: "teacher.csv",
		Schema: csvtable.Schema{
			Name:         Teacher,
			RegionColumn: ColRegion,
			Default:      csvtable.IntOrZero,
			PadShortRows: true,
		},
	},
	University: {
		Name: University,
		File: "university.csv",
		Schema: csvtable.Schema{
			Name:         University,
			RegionColumn: ColProvince,
			Default:      csvtable.String,
			PadShortRows: true,
		},
	},
}

// deriveOtherAttainment fills 其他 with the remainder of the 100k base; nulls count as 0.
func deriveOtherAttainment(rec csvtable.Record) {
	sum := 0.0
	for _, level := range AttainmentLevels[:len(AttainmentLevels)-1] {
		if v, ok := rec.Float(level); ok {
			sum += v
		}
	}
	rec[ColOther] = csvtable.Num(AttainmentBase - sum)
}

// Lookup returns the spec for name.
func Lookup(name string) (Spec, error) {
	spec, ok := specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	return spec, nil
}

// Names returns every dataset name in sorted order.
func Names() []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var regionNames = map[string]string{
	"山东": "山东省", "江苏": "江苏省", "广东": "广东省", "河北": "河北省",
	"福建": "福建省", "湖北": "湖北省", "湖南": "湖南省", "海南": "海南省",
	"辽宁": "辽宁省", "重庆": "重庆市", "北京": "北京市", "天津": "天津市",
	"浙江": "浙江省", "上海": "上海市", "河南": "河南省", "安徽": "安徽省",
	"江西": "江西省", "山西": "山西省", "陕西": "陕西省", "黑龙江": "黑龙江省",
	"吉林": "吉林省", "甘肃": "甘肃省", "内蒙古": "内蒙古自治区",
	"青海": "青海省", "宁夏": "宁夏回族自治区", "四川": "四川省",
	"云南": "云南省", "广西": "广西壮族自治区", "贵州": "贵州省",
	"西藏": "西藏自治区", "新疆": "新疆维吾尔自治区",
}

// MapRegionName translates a short region name into the GeoJSON feature name.
// Unknown names are returned unchanged.
func MapRegionName(short string) string {
	if name, ok := regionNames[short]; ok {
		return name
	}
	return short
}

// RequiredFiles lists every dataset file plus geoFile, in dataset name order.
func RequiredFiles(geoFile string) []string {
	files := make([]string, 0, len(specs)+1)
	for _, name := range Names() {
		files = append(files, specs[name].File)
	}
	return append(files, geoFile)
}
