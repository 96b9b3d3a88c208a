package api

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"oblik/internal/entity"
)

// ==== Параметры листинга ====

type SortKey struct {
	Field string
	Desc  bool
}

type ListParams struct {
	Limit   int
	Offset  int
	Sort    []SortKey
	Filters map[string][]string
}

func parseListParams(q url.Values) ListParams {
	// limit
	limit := 50
	lv := q.Get("_limit")
	if lv == "" {
		lv = q.Get("limit")
	}
	if lv != "" {
		if n, err := strconv.Atoi(lv); err == nil && n >= 0 && n <= 1000 {
			limit = n
		}
	}

	// offset
	offset := 0
	ov := q.Get("_offset")
	if ov == "" {
		ov = q.Get("offset")
	}
	if ov != "" {
		if n, err := strconv.Atoi(ov); err == nil && n >= 0 {
			offset = n
		}
	}

	// sort
	var sortKeys []SortKey
	sv := strings.TrimSpace(q.Get("_sort"))
	if sv == "" {
		sv = strings.TrimSpace(q.Get("sort"))
	}
	if sv != "" {
		for _, p := range strings.Split(sv, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			desc := false
			if strings.HasPrefix(p, "-") {
				desc = true
				p = strings.TrimPrefix(p, "-")
			} else if strings.HasPrefix(p, "+") {
				p = strings.TrimPrefix(p, "+")
			}
			if p != "" {
				sortKeys = append(sortKeys, SortKey{Field: p, Desc: desc})
			}
		}
	}

	// фильтры-равенства (исключаем служебные ключи)
	filters := make(map[string][]string)
	for key, vals := range q {
		switch key {
		case "view", "count",
			"offset", "limit", "sort",
			"_offset", "_limit", "_sort":
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				clean = append(clean, v)
			}
		}
		if len(clean) > 0 {
			filters[key] = clean
		}
	}

	return ListParams{
		Limit:   limit,
		Offset:  offset,
		Sort:    sortKeys,
		Filters: filters,
	}
}

// ==== Фильтрация и сортировка записей ====

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// filterEquals оставляет записи, у которых значение поля совпадает хотя бы
// с одним из запрошенных (строковое сравнение, как и сортировка).
func filterEquals(insts []*entity.Instance, filters map[string][]string) []*entity.Instance {
	if len(filters) == 0 {
		return insts
	}
	out := make([]*entity.Instance, 0, len(insts))
	for _, inst := range insts {
		keep := true
		for field, wants := range filters {
			got, has := inst.Data[field]
			if !has {
				keep = false
				break
			}
			gs := toString(got)
			matched := false
			for _, w := range wants {
				if gs == w {
					matched = true
					break
				}
			}
			if !matched {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, inst)
		}
	}
	return out
}

// sortInstancesMulti — стабильная мультисортировка по значениям полей.
// Отсутствующие значения идут в конец (при asc).
func sortInstancesMulti(insts []*entity.Instance, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(insts, func(i, j int) bool {
		for _, k := range keys {
			if c := cmpByKey(insts[i], insts[j], k.Field, k.Desc); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func cmpByKey(a, b *entity.Instance, key string, desc bool) int {
	va, oka := a.Data[key]
	vb, okb := b.Data[key]

	na := !oka || va == nil
	nb := !okb || vb == nil
	if na && nb {
		return 0
	}
	if na != nb {
		if na {
			return +1
		}
		return -1
	}

	sa, sb := toString(va), toString(vb)
	rel := 0
	if sa < sb {
		rel = -1
	} else if sa > sb {
		rel = +1
	}
	if desc {
		rel = -rel
	}
	return rel
}
