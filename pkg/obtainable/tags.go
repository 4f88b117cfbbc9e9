package obtainable

import "time"

// OwnerTag is the tag shared by every entry of this owner type.
func (o *Obtainer) OwnerTag() string {
	return GlobalTag + Separator + o.prefix
}

// Tags returns the ordered tag set [global, owner type, specific key] every
// entry for key is written under.
func (o *Obtainer) Tags(key string) []string {
	ownerTag := o.OwnerTag()
	return []string{GlobalTag, ownerTag, SpecificTag(ownerTag, key)}
}

// Tag returns the specific-key tag for key.
func (o *Obtainer) Tag(key string) string {
	return SpecificTag(o.OwnerTag(), key)
}

// SpecificTag composes a specific-key tag below an arbitrary owner tag.
func SpecificTag(ownerTag, key string) string {
	return ownerTag + Separator + key
}

// TTL returns the time-to-live for key, falling back to the owner default.
func (o *Obtainer) TTL(key string) time.Duration {
	if ttl, ok := o.ttlMap[key]; ok {
		return ttl
	}
	return o.ttl
}
