package facts

// DefaultEntries returns the built-in Chennai civic fact set used when no
// facts file is configured. Numbers and timings mirror the published civic
// contact directory.
func DefaultEntries() []Entry {
	return []Entry{
		// Emergency contacts.
		{
			Key:      "emergency.fire",
			Category: CategoryEmergency,
			Triggers: []string{"fire"},
			Answer:   "Fire emergency: dial 101. Available 24x7.",
		},
		{
			Key:      "emergency.police",
			Category: CategoryEmergency,
			Triggers: []string{"police"},
			Answer:   "Police emergency: dial 100. Available 24x7.",
		},
		{
			Key:      "emergency.ambulance",
			Category: CategoryEmergency,
			Triggers: []string{"ambulance", "medical", "hospital"},
			Answer:   "Ambulance / medical emergency: dial 108. Available 24x7.",
		},
		{
			Key:      "emergency.flood",
			Category: CategoryEmergency,
			Triggers: []string{"flood"},
			Answer:   "Flood helpline (Greater Chennai Corporation): dial 1913.",
		},
		{
			Key:      "emergency.water",
			Category: CategoryEmergency,
			Triggers: []string{"water emergency", "sewage emergency"},
			Answer:   "CMWSSB water and sewerage complaints: call 044-45674567.",
		},
		{
			Key:      "emergency.electricity",
			Category: CategoryEmergency,
			Triggers: []string{"electricity", "power"},
			Answer:   "Electricity complaints (TANGEDCO): call 044-25675765.",
		},
		{
			Key:      "emergency.gas",
			Category: CategoryEmergency,
			Triggers: []string{"gas"},
			Answer:   "Gas leak emergency: dial 1906 immediately. Do not switch electrical appliances on or off.",
		},
		{
			Key:      "emergency.women",
			Category: CategoryEmergency,
			Triggers: []string{"women"},
			Answer:   "Women helpline: dial 1091. Available 24x7.",
		},
		{
			Key:      "emergency.child",
			Category: CategoryEmergency,
			Triggers: []string{"child"},
			Answer:   "Child helpline: dial 1098. Available 24x7.",
		},
		{
			Key:      "emergency.corporation",
			Category: CategoryEmergency,
			Triggers: []string{"corporation"},
			Answer:   "Greater Chennai Corporation complaint line: dial 1913.",
		},

		// Government office contacts.
		{
			Key:      "government.collector",
			Category: CategoryGovernment,
			Triggers: []string{"collector"},
			Answer:   "Collector office: 044-28520314 (office hours 9:30 AM to 5:30 PM).",
		},
		{
			Key:      "government.district_collector",
			Category: CategoryGovernment,
			Triggers: []string{"district collector", "district"},
			Answer:   "District collector office: 044-25620314 (office hours 9:30 AM to 5:30 PM).",
		},
		{
			Key:      "government.mayor",
			Category: CategoryGovernment,
			Triggers: []string{"mayor"},
			Answer:   "Mayor office: 044-25384681 (office hours 9:30 AM to 5:30 PM).",
		},
		{
			Key:      "government.cm_cell",
			Category: CategoryGovernment,
			Triggers: []string{"chief minister"},
			Answer:   "Chief Minister cell: 044-25675765.",
		},
		{
			Key:      "government.police_control",
			Category: CategoryGovernment,
			Triggers: []string{"police control"},
			Answer:   "Tamil Nadu police control room: 044-28447095.",
		},

		// Civic service helplines.
		{
			Key:      "helpline.property_tax",
			Category: CategoryHelpline,
			Triggers: []string{"property tax", "tax"},
			Answer:   "Property tax helpline: 1913. Property tax is due by 31st March every year.",
		},
		{
			Key:      "helpline.water_tax",
			Category: CategoryHelpline,
			Triggers: []string{"water tax"},
			Answer:   "Water tax helpline (CMWSSB): 044-28451300. Water tax is billed bi-monthly.",
		},
		{
			Key:      "helpline.birth_certificate",
			Category: CategoryHelpline,
			Triggers: []string{"birth certificate"},
			Answer:   "Birth certificate enquiries: call 044-25384680.",
		},
		{
			Key:      "helpline.death_certificate",
			Category: CategoryHelpline,
			Triggers: []string{"death certificate"},
			Answer:   "Death certificate enquiries: call 044-25384680.",
		},
		{
			Key:      "helpline.trade_license",
			Category: CategoryHelpline,
			Triggers: []string{"trade license", "license"},
			Answer:   "Trade license enquiries: call 044-25384689.",
		},
		{
			Key:      "helpline.building_permit",
			Category: CategoryHelpline,
			Triggers: []string{"building permit", "permit"},
			Answer:   "Building permit enquiries: call 044-25384690.",
		},
		{
			Key:      "helpline.marriage",
			Category: CategoryHelpline,
			Triggers: []string{"marriage"},
			Answer:   "Marriage registration enquiries: call 044-25384685.",
		},

		// Zone office contacts.
		{
			Key:      "zone.1_north",
			Category: CategoryZone,
			Triggers: []string{"zone 1", "north zone", "north"},
			Answer:   "Zone 1 (North) office: 044-28451300 Ext.233. Services: water supply, complaints, maintenance.",
		},
		{
			Key:      "zone.2_north_east",
			Category: CategoryZone,
			Triggers: []string{"zone 2", "north east"},
			Answer:   "Zone 2 (North East) office: 044-28451300 Ext.213. Services: water supply, complaints, maintenance.",
		},
		{
			Key:      "zone.3_central",
			Category: CategoryZone,
			Triggers: []string{"zone 3", "central"},
			Answer:   "Zone 3 (Central) office: 044-28451300 Ext.212. Services: water supply, complaints, maintenance.",
		},
		{
			Key:      "zone.4_south_west",
			Category: CategoryZone,
			Triggers: []string{"zone 4", "south west"},
			Answer:   "Zone 4 (South West) office: 044-28451300 Ext.386. Services: water supply, complaints, maintenance.",
		},
		{
			Key:      "zone.5_south",
			Category: CategoryZone,
			Triggers: []string{"zone 5", "south zone", "south"},
			Answer:   "Zone 5 (South) office: 044-28451300 Ext.211. Services: water supply, complaints, maintenance.",
		},
		{
			Key:      "zone.6_adyar",
			Category: CategoryZone,
			Triggers: []string{"zone 6", "adyar"},
			Answer:   "Zone 6 (Adyar) office: 044-24912345. Services: water supply, complaints, maintenance.",
		},
		{
			Key:      "zone.7_anna_nagar",
			Category: CategoryZone,
			Triggers: []string{"zone 7", "anna nagar"},
			Answer:   "Zone 7 (Anna Nagar) office: 044-26152345. Services: water supply, complaints, maintenance.",
		},
		{
			Key:      "zone.8_teynampet",
			Category: CategoryZone,
			Triggers: []string{"zone 8", "teynampet"},
			Answer:   "Zone 8 (Teynampet) office: 044-24332345. Services: water supply, complaints, maintenance.",
		},

		// Quick reference facts.
		{
			Key:      "info.office_hours",
			Category: CategoryInfo,
			Triggers: []string{"office hours", "timing", "timings", "hours"},
			Answer:   "Corporation office hours: 9:30 AM to 5:30 PM, Monday to Friday. Emergency services run 24x7.",
		},
		{
			Key:      "info.water_supply",
			Category: CategoryInfo,
			Triggers: []string{"water supply", "supply timings"},
			Answer:   "Water supply timings: 6 AM to 8 AM and 6 PM to 8 PM daily.",
		},
		{
			Key:      "info.garbage",
			Category: CategoryInfo,
			Triggers: []string{"garbage", "garbage collection", "waste collection"},
			Answer:   "Garbage collection runs daily, 6 AM to 10 AM. Keep segregated bins out before 6 AM.",
		},
		{
			Key:      "info.tax_due",
			Category: CategoryInfo,
			Triggers: []string{"tax due", "due date"},
			Answer:   "Property tax is due by 31st March every year. Water tax is billed bi-monthly.",
		},
		{
			Key:      "info.websites",
			Category: CategoryInfo,
			Triggers: []string{"website", "websites", "online portal"},
			Answer:   "Corporation website: https://chennaicorporation.gov.in. CMWSSB website: https://cmwssb.tn.gov.in.",
		},
	}
}
