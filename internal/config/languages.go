package config

// DefaultNativeLanguages：国家二位代码（小写）-> 母语代码，取各国语言列表的首项并去掉地区后缀
// 约束：用于挑选本地化首选名称；可在配置文件的 native_languages 中逐项覆盖
var DefaultNativeLanguages = map[string]string{
	"ad": "ca", "ae": "ar", "af": "fa", "ag": "en", "ai": "en", "al": "sq", "am": "hy", "an": "nl",
	"ao": "pt", "ar": "es", "as": "en", "at": "de", "au": "en", "aw": "nl", "ax": "sv", "az": "az",
	"ba": "bs", "bb": "en", "bd": "bn", "be": "nl", "bf": "fr", "bg": "bg", "bh": "ar", "bi": "fr",
	"bj": "fr", "bl": "fr", "bm": "en", "bn": "ms", "bo": "es", "bq": "nl", "br": "pt", "bs": "en",
	"bt": "dz", "bw": "en", "by": "be", "bz": "en", "ca": "en", "cc": "ms", "cd": "fr", "cf": "fr",
	"cg": "fr", "ch": "de", "ci": "fr", "ck": "en", "cl": "es", "cm": "en", "cn": "zh", "co": "es",
	"cr": "es", "cs": "cu", "cu": "es", "cv": "pt", "cw": "nl", "cx": "en", "cy": "el", "cz": "cs",
	"de": "de", "dj": "fr", "dk": "da", "dm": "en", "do": "es", "dz": "ar", "ec": "es", "ee": "et",
	"eg": "ar", "eh": "ar", "er": "aa", "es": "es", "et": "am", "fi": "fi", "fj": "en", "fk": "en",
	"fm": "en", "fo": "fo", "fr": "fr", "ga": "fr", "gb": "en", "gd": "en", "ge": "ka", "gf": "fr",
	"gg": "en", "gh": "en", "gi": "en", "gl": "kl", "gm": "en", "gn": "fr", "gp": "fr", "gq": "es",
	"gr": "el", "gs": "en", "gt": "es", "gu": "en", "gw": "pt", "gy": "en", "hk": "zh", "hn": "es",
	"hr": "hr", "ht": "ht", "hu": "hu", "id": "id", "ie": "en", "il": "he", "im": "en", "in": "en",
	"io": "en", "iq": "ar", "ir": "fa", "is": "is", "it": "it", "je": "en", "jm": "en", "jo": "ar",
	"jp": "ja", "ke": "en", "kg": "ky", "kh": "km", "ki": "en", "km": "ar", "kn": "en", "kp": "ko",
	"kr": "ko", "kw": "ar", "ky": "en", "kz": "kk", "la": "lo", "lb": "ar", "lc": "en", "li": "de",
	"lk": "si", "lr": "en", "ls": "en", "lt": "lt", "lu": "lb", "lv": "lv", "ly": "ar", "ma": "ar",
	"mc": "fr", "md": "ro", "me": "sr", "mf": "fr", "mg": "fr", "mh": "mh", "mk": "mk", "ml": "fr",
	"mm": "my", "mn": "mn", "mo": "zh", "mp": "fil", "mq": "fr", "mr": "ar", "ms": "en", "mt": "mt",
	"mu": "en", "mv": "dv", "mw": "ny", "mx": "es", "my": "ms", "mz": "pt", "na": "en", "nc": "fr",
	"ne": "fr", "nf": "en", "ng": "en", "ni": "es", "nl": "nl", "no": "no", "np": "ne", "nr": "na",
	"nu": "niu", "nz": "en", "om": "ar", "pa": "es", "pe": "es", "pf": "fr", "pg": "en", "ph": "tl",
	"pk": "ur", "pl": "pl", "pm": "fr", "pn": "en", "pr": "en", "ps": "ar", "pt": "pt", "pw": "pau",
	"py": "es", "qa": "ar", "re": "fr", "ro": "ro", "rs": "sr", "ru": "ru", "rw": "rw", "sa": "ar",
	"sb": "en", "sc": "en", "sd": "ar", "se": "sv", "sg": "cmn", "sh": "en", "si": "sl", "sj": "no",
	"sk": "sk", "sl": "en", "sm": "it", "sn": "fr", "so": "so", "sr": "nl", "ss": "en", "st": "pt",
	"sv": "es", "sx": "nl", "sy": "ar", "sz": "en", "tc": "en", "td": "fr", "tf": "fr", "tg": "fr",
	"th": "th", "tj": "tg", "tk": "tkl", "tl": "tet", "tm": "tk", "tn": "ar", "to": "to", "tr": "tr",
	"tt": "en", "tv": "tvl", "tw": "zh", "tz": "sw", "ua": "uk", "ug": "en", "um": "en", "us": "en",
	"uy": "es", "uz": "uz", "va": "la", "vc": "en", "ve": "es", "vg": "en", "vi": "en", "vn": "vi",
	"vu": "bi", "wf": "wls", "ws": "sm", "xk": "sq", "ye": "ar", "yt": "fr", "za": "zu", "zm": "en",
	"zw": "en",
}
