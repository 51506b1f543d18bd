package testutil

// Small datasets shaped like the dashboard's CSV files. Values are illustrative.

// AllDataCSV has a BOM, an unruled header with a space, a row with missing metrics
// and a short row that must be dropped.
const AllDataCSV = "\ufeff地区,教育经费合计,一本率,重点中学比例,师生比,高等学校入学率,备注 信息\n" +
	"北京,300000000,30.5%,45.0%,12.50,60.2%,直辖市\n" +
	"上海,280000000,28.0%,40.5%,13.10,58.4%,直辖市\n" +
	"广东,450000000,12.3%,20.0%,17.80,40.1%,\n" +
	"西藏,,8.0%,,14.20,20.5%,\n" +
	"海南,100\n"

// Q1CSV pairs expenditure with higher-education enrolment; 西藏 lacks expenditure.
const Q1CSV = "地区,教育经费合计,高等学校入学率\n" +
	"北京,300000000,60.2%\n" +
	"上海,280000000,58.4%\n" +
	"广东,450000000,40.1%\n" +
	"西藏,,20.5%\n"

// Q2CSV pairs teacher-student ratio with key-school share.
const Q2CSV = "地区,师生比,重点中学比例\n" +
	"北京,12.5,45%\n" +
	"上海,13.1,40.5%\n" +
	"广东,17.8,20%\n"

// Q3CSV pairs tier-one admission rate with key-school share.
const Q3CSV = "地区,一本率,重点中学比例\n" +
	"北京,30.5%,45%\n" +
	"上海,28%,40.5%\n" +
	"广东,12.3%,20%\n"

// EducatedCSV holds attainment per 100k people; 广东 is a short row.
const EducatedCSV = "地区,大学(大专及以上),高中（含中专）,初中,小学\n" +
	"北京,41980,17593,23289,10503\n" +
	"上海,33872,19020,28935,13561\n" +
	"广东,15699,18224\n"

// TeacherCSV holds teacher counts by education and title, with a 总计 row.
const TeacherCSV = "地区,博士研究生,硕士研究生,本科毕业,专科毕业,高中阶段毕业,高中阶段毕业以下,正高级,副高级,中级,助理级,员级,未定职级\n" +
	"北京,100,2000,5000,500,50,0,10,500,3000,2000,100,2040\n" +
	"上海,80,1500,4000,600\n" +
	"总计,180,3500,9000,1100,50,0,10,500,3000,2000,100,2040\n"

// UniversityCSV lists institutions; one row has no province.
const UniversityCSV = "学校名称,省份,类型,本或专科,公或民办,985,211,双一流,地址\n" +
	"北京大学,北京,综合,本科,公办,1,1,双一流,海淀区\n" +
	"北京联合大学,北京,综合,本科,公办,0,0,,\n" +
	"北京信息职业技术学院,北京,理工,专科,公办,0,0\n" +
	"复旦大学,上海,综合,本科,公办,1,1,双一流,杨浦区\n" +
	"上海建桥学院,上海,,本科,民办,0,0,,\n" +
	"无名学院,,综合,本科,公办,0,0,,\n"

// ChinaGeoJSON is a three-province FeatureCollection.
const ChinaGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "北京市", "adcode": 110000},
     "geometry": {"type": "Polygon", "coordinates": [[[115.4, 39.4], [117.5, 39.4], [117.5, 41.1], [115.4, 41.1], [115.4, 39.4]]]}},
    {"type": "Feature", "properties": {"name": "上海市", "adcode": 310000},
     "geometry": {"type": "Polygon", "coordinates": [[[120.8, 30.7], [122.2, 30.7], [122.2, 31.9], [120.8, 31.9], [120.8, 30.7]]]}},
    {"type": "Feature", "properties": {"name": "广东省", "adcode": 440000},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[109.6, 20.2], [117.3, 20.2], [117.3, 25.5], [109.6, 25.5], [109.6, 20.2]]],
       [[[113.5, 21.8], [113.6, 21.8], [113.6, 21.9], [113.5, 21.8]]]
     ]}}
  ]
}`

// DatasetFiles returns every fixture keyed by its file name under data/.
func DatasetFiles() map[string]string {
	return map[string]string{
		"all_data.csv":   AllDataCSV,
		"q1.csv":         Q1CSV,
		"q2.csv":         Q2CSV,
		"q3.csv":         Q3CSV,
		"educated.csv":   EducatedCSV,
		"teacher.csv":    TeacherCSV,
		"university.csv": UniversityCSV,
		"china.json":     ChinaGeoJSON,
	}
}
