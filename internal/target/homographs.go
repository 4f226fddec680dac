package target

// Homographs maps ASCII characters to visually confusable Unicode
// substitutes seen in homograph attacks. Kept as data so new confusables can
// be added without touching the generator.
func Homographs() map[rune][]rune {
	return map[rune][]rune{
		'a': {'à', 'á', 'â', 'ã', 'ä', 'å', 'а'},
		'b': {'b', 'ḅ', 'ḇ', 'б'},
		'c': {'ç', 'ć', 'ĉ', 'с'},
		'd': {'d', 'ď', 'đ', 'ɗ', 'ḍ', 'ḏ'},
		'e': {'è', 'é', 'ê', 'ë', 'ē', 'е', 'ё'},
		'i': {'í', 'ì', 'ï', 'î', 'ι'},
		'o': {'ó', 'ò', 'ô', 'õ', 'ö', 'ø', 'о'},
		'm': {'м'},
		'n': {'ń', 'ñ', 'ň', 'ṇ', 'ṅ'},
		'p': {'р'},
		's': {'ś', 'š', 'ṣ'},
		't': {'ť', 'ṭ', 'ţ', 'т'},
		'u': {'ú', 'ù', 'û', 'ü', 'ū'},
		'w': {'ѡ', 'ԝ'},
		'y': {'ý', 'ÿ', 'у'},
	}
}
