package manifest

import "fmt"

// DefaultOrganization selects the organization named by the organizations
// default attribute, falling back to the first declared organization.
func (m *Manifest) DefaultOrganization() (Organization, bool) {
	orgs := m.Organizations.Organizations
	if len(orgs) == 0 {
		return Organization{}, false
	}
	if def := m.Organizations.Default; def != "" {
		for _, org := range orgs {
			if org.Identifier == def {
				return org, true
			}
		}
	}
	return orgs[0], true
}

// ResolveLaunchURL walks the default organization's item tree depth-first for
// the first item carrying a resource reference and returns that resource's
// href. Items without a reference are navigation folders and are recursed
// into. A manifest with no referencing item, a dangling reference, or a
// referenced resource without an href fails with *LaunchError.
func (m *Manifest) ResolveLaunchURL() (string, error) {
	org, ok := m.DefaultOrganization()
	if !ok {
		return "", &LaunchError{Reason: "manifest declares no organizations"}
	}
	ref := firstReference(org.Items)
	if ref == "" {
		return "", &LaunchError{Reason: fmt.Sprintf("organization %s has no item referencing a resource", org.Identifier)}
	}
	res, ok := m.FindResource(ref)
	if !ok {
		return "", &LaunchError{Reason: fmt.Sprintf("item references undeclared resource %s", ref)}
	}
	if res.Href == "" {
		return "", &LaunchError{Reason: fmt.Sprintf("resource %s declares no href", ref)}
	}
	return res.Href, nil
}

// ResolveTitle returns the default organization's title, falling back to the
// manifest identifier when no organization exposes one.
func (m *Manifest) ResolveTitle() string {
	if org, ok := m.DefaultOrganization(); ok && org.Title != "" {
		return org.Title
	}
	return m.Identifier
}

func firstReference(items []Item) string {
	for _, item := range items {
		if item.IdentifierRef != "" {
			return item.IdentifierRef
		}
		if ref := firstReference(item.Items); ref != "" {
			return ref
		}
	}
	return ""
}
