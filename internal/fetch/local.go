package fetch

import (
	"fmt"
	"strings"

	"jokebox/internal/jsontree"
	"jokebox/internal/services"
)

// Seed catalogs for the local:// pseudo-scheme. Categories map to small
// fixed item sets; requests larger than a set cycle through it.
var localCatalogs = map[string][]string{
	"daily": {
		"早上闹钟响了三次，我也拒绝了三次，这叫谈判。",
		"减肥最大的障碍不是食物，是我妈觉得我瘦了。",
		"我不是起床困难，我是对床过于忠诚。",
		"天气预报说今天有雨，我信了，带了伞，于是没下。",
		"存钱的秘诀很简单：把手机放下。",
	},
	"tech": {
		"程序员的三大谎言：马上好、这是最后一个bug、注释以后补。",
		"需求文档和实际需求的关系，就像菜单图片和实物。",
		"我的代码没有bug，只有还没被发现的特性。",
		"重启能解决百分之九十的问题，重装能解决剩下的百分之十。",
		"测试环境一切正常，上线之后全靠缘分。",
	},
	"campus": {
		"考试周的图书馆比食堂还难抢座。",
		"老师说这道题很简单，然后写满了三块黑板。",
		"室友的闹钟叫醒了整个宿舍，除了他自己。",
		"选修课必逃，必修课选逃，期末全都要命。",
	},
	"chumor": {
		"小明问爸爸：爸爸，我是不是傻孩子？爸爸说：不许这么说自己，你是傻大人。",
		"医生说我缺乏锻炼，我立刻跑了，再也没去过那家医院。",
		"钱不是万能的，没有钱是万万不能的，所以钱是万万能的。",
	},
}

var localDefaultCatalog = []string{
	"今天也是元气满满的一天，直到打开工作群。",
	"人生建议：不要在饿的时候做决定，除了点外卖。",
	"幽默感是一种天赋，我的天赋还在路上。",
}

// localCatalog produces canned items for a local://cn-jokes/<category> URL,
// bounded by the configured catalog maximum.
func (f *Fetcher) localCatalog(url, lang string, limit int) (jsontree.Node, error) {
	rest := strings.TrimPrefix(url, localScheme)
	category := rest
	if idx := strings.IndexAny(rest, "?#"); idx >= 0 {
		category = rest[:idx]
	}
	category = strings.Trim(category, "/")
	if category == "" {
		return nil, services.Wrap(services.ErrValidation, "fetch", "local catalog", "missing category", errUnknownCatalog)
	}

	seeds, ok := localCatalogs[category]
	if !ok {
		seeds = localDefaultCatalog
	}

	count := limit
	if max := f.cfg.Fetch.LocalCatalogMax; count > max {
		count = max
	}
	if count <= 0 {
		count = 1
	}

	// Cycling past the seed set yields repeats; the processor's dedup stage
	// drops them, so a large limit is harmless.
	items := make([]any, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, map[string]any{
			"content":  seeds[i%len(seeds)],
			"language": lang,
			"url":      fmt.Sprintf("%s%s#%d", localScheme, category, i),
		})
	}

	return jsontree.FromValue(map[string]any{"items": items}), nil
}
