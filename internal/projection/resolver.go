package projection

import "oblik/internal/entity"

// classify относит значение поля к Plain / ToOne / ToMany.
// Первичен объявленный kind дескриптора (to-one); to-many распознаётся
// структурно — по форме «коллекция связанных записей», чтобы псевдополя,
// отдающие готовые коллекции, тоже разворачивались. Классификация дешёвая
// и пересчитывается на каждом обращении: объём обхода ограничен размером
// набора полей, не данными.
func classify(f *entity.FieldDescriptor, v any) entity.Kind {
	if f != nil && f.Kind == entity.ToOne {
		return entity.ToOne
	}
	if _, ok := v.(entity.RelatedSet); ok {
		return entity.ToMany
	}
	return entity.Plain
}
